package api

import (
	"context"
	"net/http"

	"github.com/EgorLis/eng-community/internal/domain"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role,omitempty"`
	Bio      string      `json:"bio,omitempty"`
}

// AuthResponse — ответ login/register. Пара приходит в tokens, плоские поля — для совместимости.
type AuthResponse struct {
	Tokens       domain.Credentials `json:"tokens"`
	AccessToken  string             `json:"accessToken,omitempty"`
	RefreshToken string             `json:"refreshToken,omitempty"`
	User         domain.User        `json:"user"`
}

// Credentials — пара из любого из двух форматов ответа
func (r AuthResponse) Credentials() domain.Credentials {
	c := r.Tokens
	if c.AccessToken == "" {
		c.AccessToken = r.AccessToken
	}
	if c.RefreshToken == "" {
		c.RefreshToken = r.RefreshToken
	}
	return c
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, req, &out)
	return out, err
}

// Logout — 204 без тела
func (c *Client) Logout(ctx context.Context, refresh string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, logoutRequest{RefreshToken: refresh})
	return err
}

func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var u domain.User
	err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &u)
	return u, err
}

// MeRaw — профиль как JSON для кеша
func (c *Client) MeRaw(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/auth/me", nil, nil)
}
