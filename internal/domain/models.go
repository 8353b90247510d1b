package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Базовые идентификаторы
type UserID = uuid.UUID
type PostID = uuid.UUID
type CommentID = uuid.UUID

type Role string

const (
	RoleLearner   Role = "learner"
	RoleTeacher   Role = "teacher"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RoleTeacher, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Пользователь
type User struct {
	ID        UserID    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Bio       string    `json:"bio,omitempty"`
	PassHash  []byte    `json:"-"` // никогда не отдаём наружу
	CreatedAt time.Time `json:"createdAt"`
}

type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

func (t TargetType) Valid() bool { return t == TargetPost || t == TargetComment }

type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

func (v VoteType) Valid() bool { return v == VoteUp || v == VoteDown }

// VoteTarget — на что голосуем
type VoteTarget struct {
	TargetID   string     `json:"targetId"`
	TargetType TargetType `json:"targetType"`
}

func (t VoteTarget) String() string { return string(t.TargetType) + "/" + t.TargetID }

type VoteRequest struct {
	TargetID   string     `json:"targetId"`
	TargetType TargetType `json:"targetType"`
	VoteType   VoteType   `json:"voteType"`
}

func (r VoteRequest) Target() VoteTarget {
	return VoteTarget{TargetID: r.TargetID, TargetType: r.TargetType}
}

func (r VoteRequest) Validate() error {
	if r.TargetID == "" || !r.TargetType.Valid() || !r.VoteType.Valid() {
		return fmt.Errorf("%w: vote %s/%s %q", ErrBadParams, r.TargetType, r.TargetID, r.VoteType)
	}
	return nil
}

// VoteCounts — ответ POST /votes и GET /votes/stats
type VoteCounts struct {
	Upvotes   int64     `json:"upvotes"`
	Downvotes int64     `json:"downvotes"`
	UserVote  *VoteType `json:"userVote,omitempty"`
}

type Post struct {
	ID        PostID    `json:"id"`
	AuthorID  UserID    `json:"authorId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Upvotes   int64     `json:"upvotes"`
	Downvotes int64     `json:"downvotes"`
	UserVote  *VoteType `json:"userVote,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	ID        CommentID `json:"id"`
	PostID    PostID    `json:"postId"`
	AuthorID  UserID    `json:"authorId"`
	Content   string    `json:"content"`
	Upvotes   int64     `json:"upvotes"`
	Downvotes int64     `json:"downvotes"`
	CreatedAt time.Time `json:"createdAt"`
}

type Page[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// ListParams — пагинация/сортировка, передаются как query-параметры
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string // asc|desc
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Normalize подставляет значения по умолчанию
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.SortOrder != "asc" {
		p.SortOrder = "desc"
	}
	if p.SortBy == "" {
		p.SortBy = "createdAt"
	}
	return p
}

func (p ListParams) Values() url.Values {
	p = p.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))
	v.Set("sortBy", p.SortBy)
	v.Set("sortOrder", p.SortOrder)
	return v
}

// Key — стабильная строка для ключа кеша (url.Values.Encode сортирует ключи)
func (p ListParams) Key() string { return p.Values().Encode() }
