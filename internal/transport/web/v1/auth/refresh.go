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

type HandlerRefresh struct {
	Log       *log.Logger
	Users     domain.UsersRepo
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// Refresh godoc
// @Summary     Refresh access token
// @Description Выдаёт новый access по действующему refresh. Refresh не ротируется.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body v1.refreshBody true "refreshToken"
// @Success     200 {object} refreshResponse
// @Failure     400 {object} domain.APIEnvelope
// @Failure     401 {object} domain.APIEnvelope
// @Failure     500 {object} domain.APIEnvelope
// @Router      /v1/auth/token/refresh [post]
func (h *HandlerRefresh) Refresh(w http.ResponseWriter, r *http.Request) {
	const op = "auth.refresh"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	raw, err := v1.RefreshTokenFromRequest(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "missing token", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	claims, err := h.Tokens.Parse(r.Context(), raw, domain.TokenRefresh)
	if err != nil {
		logx.Error(h.Log, reqID, op, "parse token failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnauthorized)
		return
	}

	revoked, err := h.Blacklist.IsRevoked(r.Context(), claims.JTI)
	if err != nil {
		logx.Error(h.Log, reqID, op, "blacklist check failed", err, "jti", claims.JTI)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}
	if revoked {
		logx.Error(h.Log, reqID, op, "token revoked", domain.ErrUnauthorized, "jti", claims.JTI)
		v1.WriteDomainError(w, r, domain.ErrUnauthorized)
		return
	}

	// свежие роль/email берём из БД, удалённый пользователь — 401
	u, err := h.Users.UserByID(r.Context(), claims.UserID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "user lookup failed", err, "user_id", claims.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrUnauthorized
		}
		v1.WriteDomainError(w, r, err)
		return
	}

	access, _, err := h.Tokens.Issue(r.Context(), u, domain.TokenAccess)
	if err != nil {
		logx.Error(h.Log, reqID, op, "issue access failed", err, "user_id", u.ID)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID)
	v1.WriteOK(w, r, refreshResponse{AccessToken: access})
}
