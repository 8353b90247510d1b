package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/transport/web/logx"
	"github.com/EgorLis/eng-community/internal/transport/web/mw"
	v1 "github.com/EgorLis/eng-community/internal/transport/web/v1"
)

type HandlerLogin struct {
	Log    *log.Logger
	Users  domain.UsersRepo
	Hasher domain.PasswordHasher
	Tokens Tokens
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary     Authenticate user
// @Description Возвращает пару access/refresh при валидных email и пароле.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body loginRequest true "email, password"
// @Success     200 {object} authResponse
// @Failure     400 {object} domain.APIEnvelope
// @Failure     401 {object} domain.APIEnvelope
// @Failure     500 {object} domain.APIEnvelope
// @Router      /v1/auth/login [post]
func (h *HandlerLogin) Login(w http.ResponseWriter, r *http.Request) {
	const op = "auth.login"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	var req loginRequest
	if err := v1.DecodeJSON(r, &req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	email := domain.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		logx.Error(h.Log, reqID, op, "empty email or password", domain.ErrBadParams)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	u, err := h.Users.UserByEmail(r.Context(), email)
	if err != nil {
		logx.Error(h.Log, reqID, op, "user lookup failed", err, "email", email)
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrUnauthorized
		}
		v1.WriteDomainError(w, r, err)
		return
	}

	ok, err := h.Hasher.Verify(req.Password, string(u.PassHash))
	if err != nil || !ok {
		logx.Error(h.Log, reqID, op, "password verify failed", err, "email", email)
		v1.WriteDomainError(w, r, domain.ErrUnauthorized)
		return
	}

	pair, _, err := h.Tokens.IssuePair(r.Context(), u)
	if err != nil {
		logx.Error(h.Log, reqID, op, "issue tokens failed", err, "user_id", u.ID)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID)
	v1.WriteOK(w, r, newAuthResponse(pair, u))
}
