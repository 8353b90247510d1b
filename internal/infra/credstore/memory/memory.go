package memory

import (
	"context"
	"sync"

	"github.com/EgorLis/eng-community/internal/domain"
)

// Store — пара токенов в памяти процесса
type Store struct {
	mu    sync.RWMutex
	creds domain.Credentials
}

var _ domain.CredentialStore = (*Store)(nil)

func New(initial domain.Credentials) *Store { return &Store{creds: initial} }

func (s *Store) Load(context.Context) (domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, nil
}

func (s *Store) Save(_ context.Context, c domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = c
	return nil
}

func (s *Store) SetAccess(_ context.Context, access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.creds.HasRefresh() {
		return nil
	}
	s.creds.AccessToken = access
	return nil
}

func (s *Store) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = domain.Credentials{}
	return nil
}
