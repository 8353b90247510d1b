package password

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/EgorLis/eng-community/internal/domain"
)

// ErrNoParams — Hasher без параметров argon2id
var ErrNoParams = errors.New("password: argon2id params not set")

// LightParams — дешёвые параметры для тестов; в проде только NewDefault
var LightParams = argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type Hasher struct {
	params *argon2id.Params
}

var _ domain.PasswordHasher = (*Hasher)(nil)

func NewDefault() *Hasher {
	return &Hasher{params: argon2id.DefaultParams}
}

func New(p *argon2id.Params) *Hasher { return &Hasher{params: p} }

// Hash — строка $argon2id$v=19$m=...; в users.pass_hash
func (h *Hasher) Hash(plain string) (string, error) {
	if h == nil || h.params == nil {
		return "", ErrNoParams
	}
	return argon2id.CreateHash(plain, h.params)
}

// Verify: неверный пароль — (false, nil); битый хэш в БД — ErrUnexpected
func (h *Hasher) Verify(plain, encodedHash string) (bool, error) {
	ok, err := argon2id.ComparePasswordAndHash(plain, encodedHash)
	if err != nil {
		return false, fmt.Errorf("%w: stored hash: %w", domain.ErrUnexpected, err)
	}
	return ok, nil
}
