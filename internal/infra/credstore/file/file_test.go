package file

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/EgorLis/eng-community/internal/domain"
)

func newStore(t *testing.T) (*Store, string) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	return New(path, log.New(io.Discard, "", 0)), path
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	g := NewWithT(t)
	s, _ := newStore(t)
	c, err := s.Load(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.Empty()).To(BeTrue())
}

func TestSurvivesReopen(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	s, path := newStore(t)
	g.Expect(s.Save(ctx, domain.Credentials{AccessToken: "a1", RefreshToken: "r1"})).To(Succeed())
	g.Expect(s.SetAccess(ctx, "a2")).To(Succeed())

	reopened := New(path, log.New(io.Discard, "", 0))
	c, err := reopened.Load(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c).To(Equal(domain.Credentials{AccessToken: "a2", RefreshToken: "r1"}))

	info, err := os.Stat(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
}

func TestClearIsIdempotent(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	s, path := newStore(t)
	g.Expect(s.Save(ctx, domain.Credentials{AccessToken: "a", RefreshToken: "r"})).To(Succeed())
	g.Expect(s.Clear(ctx)).To(Succeed())
	g.Expect(s.Clear(ctx)).To(Succeed())

	_, err := os.Stat(path)
	g.Expect(os.IsNotExist(err)).To(BeTrue())
	c, err := s.Load(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.Empty()).To(BeTrue())
}

func TestSetAccessAfterClearKeepsStoreEmpty(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	s, path := newStore(t)
	g.Expect(s.Save(ctx, domain.Credentials{AccessToken: "a1", RefreshToken: "r1"})).To(Succeed())
	g.Expect(s.Clear(ctx)).To(Succeed())

	// запоздавший refresh после logout
	g.Expect(s.SetAccess(ctx, "late")).To(Succeed())

	_, err := os.Stat(path)
	g.Expect(os.IsNotExist(err)).To(BeTrue())
	c, err := s.Load(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.Empty()).To(BeTrue())
}
