package password

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/EgorLis/eng-community/internal/domain"
)

func TestHashVerify(t *testing.T) {
	g := NewWithT(t)
	h := New(&LightParams)

	enc, err := h.Hash("pw")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(enc).To(HavePrefix("$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := h.Verify("pw", enc)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	ok, err = h.Verify("other", enc)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeFalse())
}

func TestNilParams(t *testing.T) {
	g := NewWithT(t)
	_, err := (&Hasher{}).Hash("pw")
	g.Expect(err).To(MatchError(ErrNoParams))
}

func TestVerifyMalformedHash(t *testing.T) {
	g := NewWithT(t)
	ok, err := New(&LightParams).Verify("pw", "not-a-hash")
	g.Expect(ok).To(BeFalse())
	g.Expect(err).To(MatchError(domain.ErrUnexpected))
}
