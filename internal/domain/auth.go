package domain

import (
	"context"
	"time"
)

// Credentials — пара токенов клиента. Access прикладывается к каждому запросу,
// refresh используется только для выпуска нового access.
type Credentials struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func (c Credentials) Empty() bool      { return c.AccessToken == "" && c.RefreshToken == "" }
func (c Credentials) HasRefresh() bool { return c.RefreshToken != "" }

// CredentialStore — долговременное хранилище пары на стороне клиента.
// Создаётся пустым, очищается при logout или неудачном refresh.
type CredentialStore interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, c Credentials) error
	// SetAccess заменяет только access, refresh остаётся прежним.
	// Без сохранённого refresh (пару уже очистили) ничего не делает.
	SetAccess(ctx context.Context, access string) error
	Clear(ctx context.Context) error
}

// Серверная часть

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

type TokenClaims struct {
	JTI       string
	Kind      TokenKind
	UserID    UserID
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encodedHash string) (bool, error)
}

type TokenManager interface {
	Issue(ctx context.Context, u User, kind TokenKind) (string, TokenClaims, error)
	Parse(ctx context.Context, raw string, kind TokenKind) (TokenClaims, error)
}

// Ключи блэклиста в Redis/KV: auth:jti:{jti}
const BlacklistKeyPrefix = "auth:jti:"

func BlacklistKey(jti string) string { return BlacklistKeyPrefix + jti }

// Блэклист refresh-токенов (Redis)
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
