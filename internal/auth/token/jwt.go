package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/EgorLis/eng-community/internal/domain"
)

// ErrWrongKind — refresh предъявлен как access или наоборот
var ErrWrongKind = errors.New("token: wrong kind")

// ErrMissingJTI — refresh без jti нельзя отозвать
var ErrMissingJTI = errors.New("token: missing jti")

type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func New(secret string, issuer string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// внутренний тип для подписи/парсинга с jwt.RegisteredClaims
type jwtClaims struct {
	Kind   domain.TokenKind `json:"typ"`
	UserID uuid.UUID        `json:"uid"`
	Email  string           `json:"email"`
	Role   domain.Role      `json:"role"`
	jwt.RegisteredClaims
}

// Ensure: Manager implements domain.TokenManager
var _ domain.TokenManager = (*Manager)(nil)

func (m *Manager) ttl(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenRefresh {
		return m.refreshTTL
	}
	return m.accessTTL
}

// Issue выпускает JWT нужного вида и возвращает доменные клеймы
func (m *Manager) Issue(_ context.Context, u domain.User, kind domain.TokenKind) (string, domain.TokenClaims, error) {
	now := m.now().UTC()
	jti := uuid.NewString()

	cl := jwtClaims{
		Kind:   kind,
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl(kind))),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	tokenStr, err := t.SignedString(m.secret)
	if err != nil {
		return "", domain.TokenClaims{}, err
	}
	return tokenStr, toDomain(cl), nil
}

// IssuePair — access + refresh для login/register
func (m *Manager) IssuePair(ctx context.Context, u domain.User) (domain.Credentials, domain.TokenClaims, error) {
	access, _, err := m.Issue(ctx, u, domain.TokenAccess)
	if err != nil {
		return domain.Credentials{}, domain.TokenClaims{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, rc, err := m.Issue(ctx, u, domain.TokenRefresh)
	if err != nil {
		return domain.Credentials{}, domain.TokenClaims{}, fmt.Errorf("issue refresh: %w", err)
	}
	return domain.Credentials{AccessToken: access, RefreshToken: refresh}, rc, nil
}

// Parse валидирует подпись/сроки/вид и возвращает доменные клеймы
func (m *Manager) Parse(_ context.Context, raw string, kind domain.TokenKind) (domain.TokenClaims, error) {
	var out jwtClaims
	tkn, err := jwt.ParseWithClaims(raw, &out, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return domain.TokenClaims{}, err
	}
	if !tkn.Valid {
		return domain.TokenClaims{}, jwt.ErrTokenInvalidClaims
	}
	if out.Kind != kind {
		return domain.TokenClaims{}, ErrWrongKind
	}
	if kind == domain.TokenRefresh && out.ID == "" {
		return domain.TokenClaims{}, ErrMissingJTI
	}
	return toDomain(out), nil
}

func toDomain(cl jwtClaims) domain.TokenClaims {
	return domain.TokenClaims{
		JTI:       cl.ID,
		Kind:      cl.Kind,
		UserID:    cl.UserID,
		Email:     cl.Email,
		Role:      cl.Role,
		IssuedAt:  cl.IssuedAt.Time,
		ExpiresAt: cl.ExpiresAt.Time,
	}
}
