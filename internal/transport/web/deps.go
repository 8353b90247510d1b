package web

import (
	"context"

	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/transport/web/v1/auth"
)

type Repos struct {
	Users domain.UsersRepo
	Votes domain.VotesRepo
	Posts domain.PostsRepo
}

type AuthDeps struct {
	Hasher    domain.PasswordHasher
	Tokens    auth.Tokens
	Blacklist domain.TokenBlacklist
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps — всё, что нужно роутеру
type Deps struct {
	Repos   Repos
	Auth    AuthDeps
	Storage domain.BlobStorage
	Cache   Pinger
}
