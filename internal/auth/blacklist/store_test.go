package blacklist

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/EgorLis/eng-community/internal/domain"
)

type fakeKV struct {
	data map[string]int
}

func (f *fakeKV) SetNX(_ context.Context, key string, _ []byte, ttl int) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = ttl
	return true, nil
}

func (f *fakeKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.data[key]
	return ok, nil
}

func newTestStore() (*Store, *fakeKV, time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	kv := &fakeKV{data: map[string]int{}}
	s := NewStore(kv)
	s.now = func() time.Time { return now }
	return s, kv, now
}

func TestRevoke(t *testing.T) {
	g := NewWithT(t)
	s, kv, now := newTestStore()

	g.Expect(s.Revoke(context.Background(), "abc", now.Add(time.Hour))).To(Succeed())
	revoked, err := s.IsRevoked(context.Background(), "abc")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(revoked).To(BeTrue())
	g.Expect(kv.data).To(HaveKeyWithValue("auth:jti:abc", 3600))
	g.Expect(domain.BlacklistKey("abc")).To(Equal("auth:jti:abc"))

	revoked, _ = s.IsRevoked(context.Background(), "other")
	g.Expect(revoked).To(BeFalse())
}

func TestRevokePastExpiry(t *testing.T) {
	g := NewWithT(t)
	s, kv, now := newTestStore()
	g.Expect(s.Revoke(context.Background(), "old", now.Add(-time.Hour))).To(Succeed())
	g.Expect(kv.data).To(HaveKeyWithValue(domain.BlacklistKey("old"), 60))
}

func TestEmptyJTIRejected(t *testing.T) {
	g := NewWithT(t)
	s, kv, now := newTestStore()
	g.Expect(s.Revoke(context.Background(), "", now.Add(time.Hour))).To(MatchError(domain.ErrBadParams))
	_, err := s.IsRevoked(context.Background(), "")
	g.Expect(err).To(MatchError(domain.ErrBadParams))
	g.Expect(kv.data).To(BeEmpty())
}
