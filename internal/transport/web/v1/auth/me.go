package auth

import (
	"log"
	"net/http"

	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/transport/web/logx"
	"github.com/EgorLis/eng-community/internal/transport/web/mw"
	v1 "github.com/EgorLis/eng-community/internal/transport/web/v1"
)

type HandlerMe struct {
	Log   *log.Logger
	Users domain.UsersRepo
}

// Me godoc
// @Summary     Current user profile
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} domain.User
// @Failure     401 {object} domain.APIEnvelope
// @Router      /v1/auth/me [get]
func (h *HandlerMe) Me(w http.ResponseWriter, r *http.Request) {
	const op = "auth.me"
	reqID := mw.RequestIDFromCtx(r.Context())

	cu, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauthorized)
		return
	}

	u, err := h.Users.UserByID(r.Context(), cu.ID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "user lookup failed", err, "user_id", cu.ID)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID)
	v1.WriteOK(w, r, u)
}
