package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/EgorLis/eng-community/internal/domain"
)

// KV — от кеша нужны только SetNX и Exists (Redis или память)
type KV interface {
	SetNX(ctx context.Context, key string, val []byte, ttlSeconds int) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// minTTL — запись живёт хотя бы столько, даже если refresh уже истёк
const minTTL = time.Minute

// Store — отозванные refresh-токены (logout), ключи domain.BlacklistKey
type Store struct {
	kv  KV
	now func() time.Time
}

var _ domain.TokenBlacklist = (*Store)(nil)

func NewStore(kv KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Revoke помечает jti отозванным до exp; повторный отзыв не продлевает запись
func (s *Store) Revoke(ctx context.Context, jti string, exp time.Time) error {
	if jti == "" {
		return fmt.Errorf("%w: empty jti", domain.ErrBadParams)
	}
	ttl := exp.Sub(s.now())
	if ttl < minTTL {
		ttl = minTTL
	}
	if _, err := s.kv.SetNX(ctx, domain.BlacklistKey(jti), []byte("1"), int(ttl.Seconds())); err != nil {
		return fmt.Errorf("revoke %s: %w", jti, err)
	}
	return nil
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, fmt.Errorf("%w: empty jti", domain.ErrBadParams)
	}
	return s.kv.Exists(ctx, domain.BlacklistKey(jti))
}
