package mw

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"github.com/EgorLis/eng-community/internal/domain"
)

type fakeTokens struct{}

func (fakeTokens) Issue(context.Context, domain.User, domain.TokenKind) (string, domain.TokenClaims, error) {
	return "", domain.TokenClaims{}, errors.New("not used")
}

func (fakeTokens) Parse(_ context.Context, raw string, kind domain.TokenKind) (domain.TokenClaims, error) {
	switch {
	case raw == "access-ok" && kind == domain.TokenAccess:
		return domain.TokenClaims{Kind: domain.TokenAccess, UserID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Email: "a@x.com", Role: domain.RoleLearner}, nil
	case raw == "refresh-ok" && kind == domain.TokenRefresh:
		return domain.TokenClaims{Kind: domain.TokenRefresh}, nil
	}
	return domain.TokenClaims{}, errors.New("invalid")
}

func whoami(w http.ResponseWriter, r *http.Request) {
	if u, ok := domain.UserFromCtx(r.Context()); ok {
		_, _ = w.Write([]byte(u.Email))
		return
	}
	_, _ = w.Write([]byte("anon"))
}

func do(h http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	g := NewWithT(t)
	h := RequireAuth(AuthDeps{Tokens: fakeTokens{}}, http.HandlerFunc(whoami))

	rec := do(h, "Bearer access-ok")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(rec.Body.String()).To(Equal("a@x.com"))

	for _, auth := range []string{"", "Bearer nope", "Bearer refresh-ok", "Basic abc"} {
		rec := do(h, auth)
		g.Expect(rec.Code).To(Equal(http.StatusUnauthorized), auth)
		g.Expect(rec.Body.String()).To(MatchJSON(`{"error":{"code":1001,"text":"unauthorized"}}`))
	}
}

func TestOptionalAuth(t *testing.T) {
	g := NewWithT(t)
	h := OptionalAuth(AuthDeps{Tokens: fakeTokens{}}, http.HandlerFunc(whoami))

	g.Expect(do(h, "bearer access-ok").Body.String()).To(Equal("a@x.com"))
	g.Expect(do(h, "Bearer broken").Body.String()).To(Equal("anon"))
	g.Expect(do(h, "").Body.String()).To(Equal("anon"))
}

func TestRequestIDAndLogging(t *testing.T) {
	g := NewWithT(t)
	var buf bytes.Buffer
	l := log.New(&buf, "", 0)

	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromCtx(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	})
	h := WithRequestID(Logging(l)(inner))

	rec := do(h, "")
	g.Expect(seen).NotTo(BeEmpty())
	g.Expect(rec.Header().Get(HeaderRequestID)).To(Equal(seen))
	g.Expect(buf.String()).To(ContainSubstring("req_id=" + seen))
	g.Expect(buf.String()).To(ContainSubstring("status=418 size=3"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "client-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	g.Expect(seen).To(Equal("client-id"))
}

func TestExtractBearer(t *testing.T) {
	g := NewWithT(t)
	g.Expect(ExtractBearer("Bearer  abc ")).To(Equal("abc"))
	g.Expect(ExtractBearer("Bearer ")).To(BeEmpty())
	g.Expect(ExtractBearer("Token abc")).To(BeEmpty())
}
