package mw

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/EgorLis/eng-community/internal/domain"
)

type AuthDeps struct {
	Tokens domain.TokenManager
}

// OptionalAuth — пользователь в контексте, если access-токен валиден; иначе идём анонимно
func OptionalAuth(deps AuthDeps, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := authenticate(r.Context(), deps, r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), u)))
	})
}

// RequireAuth — без валидного access-токена 401 в конверте
func RequireAuth(deps AuthDeps, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := authenticate(r.Context(), deps, r.Header.Get("Authorization"))
		if !ok {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), u)))
	})
}

// refresh-токен как access не принимается: Parse проверяет вид
func authenticate(ctx context.Context, deps AuthDeps, header string) (domain.User, bool) {
	raw := ExtractBearer(header)
	if raw == "" {
		return domain.User{}, false
	}
	claims, err := deps.Tokens.Parse(ctx, raw, domain.TokenAccess)
	if err != nil {
		return domain.User{}, false
	}
	return domain.User{ID: claims.UserID, Email: claims.Email, Role: claims.Role}, true
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="eng-community"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(domain.Fail(domain.ErrCodeUnauth, "unauthorized"))
}

func ExtractBearer(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
