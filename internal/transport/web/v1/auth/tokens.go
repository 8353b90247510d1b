package auth

import (
	"context"

	"github.com/EgorLis/eng-community/internal/domain"
)

// Tokens — менеджер JWT с выпуском пары (token.Manager)
type Tokens interface {
	domain.TokenManager
	IssuePair(ctx context.Context, u domain.User) (domain.Credentials, domain.TokenClaims, error)
}

// authResponse — пара в tokens и продублирована плоско
type authResponse struct {
	Tokens       domain.Credentials `json:"tokens"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	User         domain.User        `json:"user"`
}

func newAuthResponse(c domain.Credentials, u domain.User) authResponse {
	return authResponse{Tokens: c, AccessToken: c.AccessToken, RefreshToken: c.RefreshToken, User: u}
}
