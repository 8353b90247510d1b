// Package file хранит пару токенов в JSON-файле, переживающем перезапуск клиента.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/EgorLis/eng-community/internal/domain"
)

type Store struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
}

var _ domain.CredentialStore = (*Store)(nil)

func New(path string, logger *log.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load — отсутствующий файл означает пустую пару
func (s *Store) Load(context.Context) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *Store) Save(_ context.Context, c domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(c)
}

func (s *Store) SetAccess(_ context.Context, access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.readLocked()
	if err != nil {
		return err
	}
	if !c.HasRefresh() {
		s.logger.Printf("set access skipped: no refresh token (%s)", s.path)
		return nil
	}
	c.AccessToken = access
	return s.writeLocked(c)
}

func (s *Store) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Printf("remove %s failed: %v", s.path, err)
		return fmt.Errorf("clear credentials: %w", err)
	}
	s.logger.Printf("credentials cleared (%s)", s.path)
	return nil
}

func (s *Store) readLocked() (domain.Credentials, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Credentials{}, nil
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	var c domain.Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return domain.Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	return c, nil
}

// writeLocked пишет через временный файл и rename, чтобы не оставить полузаписанный JSON
func (s *Store) writeLocked(c domain.Credentials) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	s.logger.Printf("credentials saved (%s)", s.path)
	return nil
}
