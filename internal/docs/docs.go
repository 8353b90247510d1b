// Package docs — OpenAPI 2.0 описание Resource API для /swagger/.
// Собрано по аннотациям хендлеров в internal/transport/web/v1; при смене маршрутов править вместе с ними.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/health.statusResponse"}}
                }
            }
        },
        "/v1/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/health.statusResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/health.statusResponse"}}
                }
            }
        },
        "/v1/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register new user",
                "parameters": [
                    {"description": "email, password, name, role?, bio?", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/auth.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Authenticate user",
                "parameters": [
                    {"description": "email, password", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/auth/token/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Refresh access token",
                "parameters": [
                    {"description": "refreshToken", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.refreshBody"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.refreshResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout (revoke refresh token)",
                "parameters": [
                    {"description": "refreshToken", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.refreshBody"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/votes": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Vote for a post or comment",
                "parameters": [
                    {"description": "targetId, targetType, voteType", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.VoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.VoteCounts"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/votes/{type}/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Remove own vote",
                "parameters": [
                    {"type": "string", "description": "post | comment", "name": "type", "in": "path", "required": true},
                    {"type": "string", "description": "target id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.VoteCounts"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/votes/stats/{type}/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Vote counters of a target",
                "parameters": [
                    {"type": "string", "description": "post | comment", "name": "type", "in": "path", "required": true},
                    {"type": "string", "description": "target id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.VoteCounts"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/posts/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Get post by id",
                "parameters": [
                    {"type": "string", "description": "post id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Post"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/comments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Comments of a post",
                "parameters": [
                    {"type": "string", "description": "post id", "name": "postId", "in": "query", "required": true},
                    {"type": "integer", "description": "page, from 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "page size, max 100", "name": "limit", "in": "query"},
                    {"type": "string", "description": "createdAt | upvotes | downvotes", "name": "sortBy", "in": "query"},
                    {"type": "string", "description": "asc | desc", "name": "sortOrder", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.CommentPage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        },
        "/v1/media": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Upload media to S3",
                "parameters": [
                    {"type": "file", "description": "file to upload", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.BlobPutResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["media"],
                "summary": "Delete media from S3",
                "parameters": [
                    {"type": "string", "description": "storage key, media/sha256/...", "name": "key", "in": "query", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "auth.authResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"},
                "tokens": {"$ref": "#/definitions/domain.Credentials"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "auth.loginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "auth.refreshResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"}
            }
        },
        "auth.registerRequest": {
            "type": "object",
            "properties": {
                "bio": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["learner", "teacher", "moderator", "admin"]}
            }
        },
        "domain.APIEnvelope": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "integer"},
                        "text": {"type": "string"}
                    }
                }
            }
        },
        "domain.BlobPutResult": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "mime": {"type": "string"},
                "size": {"type": "integer"}
            }
        },
        "domain.Comment": {
            "type": "object",
            "properties": {
                "authorId": {"type": "string"},
                "content": {"type": "string"},
                "createdAt": {"type": "string"},
                "downvotes": {"type": "integer"},
                "id": {"type": "string"},
                "postId": {"type": "string"},
                "upvotes": {"type": "integer"}
            }
        },
        "domain.CommentPage": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Comment"}},
                "limit": {"type": "integer"},
                "page": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "domain.Credentials": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"}
            }
        },
        "domain.Post": {
            "type": "object",
            "properties": {
                "authorId": {"type": "string"},
                "content": {"type": "string"},
                "createdAt": {"type": "string"},
                "downvotes": {"type": "integer"},
                "id": {"type": "string"},
                "title": {"type": "string"},
                "upvotes": {"type": "integer"},
                "userVote": {"type": "string", "enum": ["upvote", "downvote"]}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "bio": {"type": "string"},
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string", "enum": ["learner", "teacher", "moderator", "admin"]}
            }
        },
        "domain.VoteCounts": {
            "type": "object",
            "properties": {
                "downvotes": {"type": "integer"},
                "upvotes": {"type": "integer"},
                "userVote": {"type": "string", "enum": ["upvote", "downvote"]}
            }
        },
        "domain.VoteRequest": {
            "type": "object",
            "properties": {
                "targetId": {"type": "string"},
                "targetType": {"type": "string", "enum": ["post", "comment"]},
                "voteType": {"type": "string", "enum": ["upvote", "downvote"]}
            }
        },
        "health.statusResponse": {
            "type": "object",
            "properties": {
                "failed": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"}
            }
        },
        "v1.refreshBody": {
            "type": "object",
            "properties": {
                "refreshToken": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer {access token}",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo — метаданные; Host/BasePath можно переопределить при старте
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "eng-community API",
	Description:      "Resource API: auth (access/refresh), posts, comments, votes, media.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
