package vote

import (
	"log"
	"net/http"

	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/transport/web/logx"
	"github.com/EgorLis/eng-community/internal/transport/web/mw"
	v1 "github.com/EgorLis/eng-community/internal/transport/web/v1"
)

type Handler struct {
	Log   *log.Logger
	Votes domain.VotesRepo
}

// Cast godoc
// @Summary     Vote for a post or comment
// @Description Один голос пользователя на цель; повторный голос меняет тип. Возвращает актуальные счётчики.
// @Tags        votes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body domain.VoteRequest true "targetId, targetType, voteType"
// @Success     200 {object} domain.VoteCounts
// @Failure     400 {object} domain.APIEnvelope
// @Failure     401 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/votes [post]
func (h *Handler) Cast(w http.ResponseWriter, r *http.Request) {
	const op = "votes.cast"
	reqID := mw.RequestIDFromCtx(r.Context())

	u, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauthorized)
		return
	}

	var req domain.VoteRequest
	if err := v1.DecodeJSON(r, &req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		logx.Error(h.Log, reqID, op, "validation failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	counts, err := h.Votes.UpsertVote(r.Context(), u.ID, req)
	if err != nil {
		logx.Error(h.Log, reqID, op, "upsert failed", err, "target", req.Target(), "user_id", u.ID)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "target", req.Target(), "vote", req.VoteType, "user_id", u.ID)
	v1.WriteOK(w, r, counts)
}

// Remove godoc
// @Summary     Remove own vote
// @Tags        votes
// @Produce     json
// @Security    BearerAuth
// @Param       type path string true "post | comment"
// @Param       id   path string true "target id"
// @Success     200 {object} domain.VoteCounts
// @Failure     401 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/votes/{type}/{id} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	const op = "votes.remove"
	reqID := mw.RequestIDFromCtx(r.Context())

	u, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauthorized)
		return
	}

	t := targetFromPath(r)
	counts, err := h.Votes.RemoveVote(r.Context(), u.ID, t)
	if err != nil {
		logx.Error(h.Log, reqID, op, "remove failed", err, "target", t, "user_id", u.ID)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "target", t, "user_id", u.ID)
	v1.WriteOK(w, r, counts)
}

// Stats godoc
// @Summary     Vote counters of a target
// @Description userVote заполняется, если запрос авторизован.
// @Tags        votes
// @Produce     json
// @Param       type path string true "post | comment"
// @Param       id   path string true "target id"
// @Success     200 {object} domain.VoteCounts
// @Failure     400 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/votes/stats/{type}/{id} [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	const op = "votes.stats"
	reqID := mw.RequestIDFromCtx(r.Context())

	viewer := domain.ViewerFromCtx(r.Context())

	t := targetFromPath(r)
	counts, err := h.Votes.VoteCounts(r.Context(), t, viewer)
	if err != nil {
		logx.Error(h.Log, reqID, op, "counts failed", err, "target", t)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "target", t, "up", counts.Upvotes, "down", counts.Downvotes)
	v1.WriteOK(w, r, counts)
}

func targetFromPath(r *http.Request) domain.VoteTarget {
	return domain.VoteTarget{
		TargetType: domain.TargetType(r.PathValue("type")),
		TargetID:   r.PathValue("id"),
	}
}
