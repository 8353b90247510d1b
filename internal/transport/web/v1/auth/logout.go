package auth

import (
	"log"
	"net/http"

	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/transport/web/logx"
	"github.com/EgorLis/eng-community/internal/transport/web/mw"
	v1 "github.com/EgorLis/eng-community/internal/transport/web/v1"
)

type HandlerLogout struct {
	Log       *log.Logger
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
}

// Logout godoc
// @Summary     Logout (revoke refresh token)
// @Description Завершает сессию: refresh-токен помечается отозванным до истечения exp.
// @Tags        auth
// @Accept      json
// @Param       request body v1.refreshBody true "refreshToken"
// @Success     204
// @Failure     400 {object} domain.APIEnvelope
// @Failure     401 {object} domain.APIEnvelope
// @Failure     500 {object} domain.APIEnvelope
// @Router      /v1/auth/logout [post]
func (h *HandlerLogout) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "auth.logout"
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

	// ревокация до exp
	if err := h.Blacklist.Revoke(r.Context(), claims.JTI, claims.ExpiresAt); err != nil {
		logx.Error(h.Log, reqID, op, "revoke failed", err, "jti", claims.JTI)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "jti", claims.JTI, "user_id", claims.UserID)
	v1.WriteNoContent(w, r)
}
