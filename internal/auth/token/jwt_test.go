package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"github.com/EgorLis/eng-community/internal/domain"
)

func testUser() domain.User {
	return domain.User{ID: uuid.New(), Email: "a@x.com", Role: domain.RoleLearner}
}

func TestIssueAndParsePair(t *testing.T) {
	g := NewWithT(t)
	m := New("secret", "test", time.Minute, time.Hour)
	u := testUser()

	pair, rc, err := m.IssuePair(context.Background(), u)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(rc.Kind).To(Equal(domain.TokenRefresh))

	ac, err := m.Parse(context.Background(), pair.AccessToken, domain.TokenAccess)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ac.UserID).To(Equal(u.ID))
	g.Expect(ac.Email).To(Equal("a@x.com"))
	g.Expect(ac.JTI).NotTo(BeEmpty())

	rcl, err := m.Parse(context.Background(), pair.RefreshToken, domain.TokenRefresh)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(rcl.JTI).To(Equal(rc.JTI))
	g.Expect(rcl.ExpiresAt.Sub(rcl.IssuedAt)).To(Equal(time.Hour))
}

func TestParseRejectsWrongKind(t *testing.T) {
	g := NewWithT(t)
	m := New("secret", "test", time.Minute, time.Hour)
	pair, _, err := m.IssuePair(context.Background(), testUser())
	g.Expect(err).NotTo(HaveOccurred())

	_, err = m.Parse(context.Background(), pair.RefreshToken, domain.TokenAccess)
	g.Expect(err).To(MatchError(ErrWrongKind))
	_, err = m.Parse(context.Background(), pair.AccessToken, domain.TokenRefresh)
	g.Expect(err).To(MatchError(ErrWrongKind))
}

func TestParseRejectsExpired(t *testing.T) {
	g := NewWithT(t)
	m := New("secret", "test", time.Minute, time.Hour)
	now := time.Now()
	m.now = func() time.Time { return now }

	raw, _, err := m.Issue(context.Background(), testUser(), domain.TokenAccess)
	g.Expect(err).NotTo(HaveOccurred())

	m.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = m.Parse(context.Background(), raw, domain.TokenAccess)
	g.Expect(err).To(MatchError(jwt.ErrTokenExpired))
}

func TestParseRejectsForeignSecret(t *testing.T) {
	g := NewWithT(t)
	raw, _, err := New("one", "test", time.Minute, time.Hour).Issue(context.Background(), testUser(), domain.TokenAccess)
	g.Expect(err).NotTo(HaveOccurred())

	_, err = New("two", "test", time.Minute, time.Hour).Parse(context.Background(), raw, domain.TokenAccess)
	g.Expect(err).To(MatchError(jwt.ErrTokenSignatureInvalid))
}

func TestParseRejectsRefreshWithoutJTI(t *testing.T) {
	g := NewWithT(t)
	m := New("secret", "test", time.Minute, time.Hour)
	now := time.Now()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Kind:   domain.TokenRefresh,
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}).SignedString([]byte("secret"))
	g.Expect(err).NotTo(HaveOccurred())

	_, err = m.Parse(context.Background(), raw, domain.TokenRefresh)
	g.Expect(err).To(MatchError(ErrMissingJTI))
}
