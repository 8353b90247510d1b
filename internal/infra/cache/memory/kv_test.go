package memory

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestSetNXAndExpiry(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	kv := New()
	kv.now = func() time.Time { return now }

	ok, err := kv.SetNX(ctx, "jti:1", []byte("1"), 60)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	ok, _ = kv.SetNX(ctx, "jti:1", []byte("1"), 60)
	g.Expect(ok).To(BeFalse())

	exists, _ := kv.Exists(ctx, "jti:1")
	g.Expect(exists).To(BeTrue())

	now = now.Add(61 * time.Second)
	exists, _ = kv.Exists(ctx, "jti:1")
	g.Expect(exists).To(BeFalse())

	ok, _ = kv.SetNX(ctx, "jti:1", []byte("1"), 60)
	g.Expect(ok).To(BeTrue())
}
