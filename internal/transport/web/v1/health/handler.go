package health

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/eng-community/internal/transport/web/logx"
	"github.com/EgorLis/eng-community/internal/transport/web/mw"
	v1 "github.com/EgorLis/eng-community/internal/transport/web/v1"
)

type Pinger interface {
	Ping(context.Context) error
}

type statusResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

type Handler struct {
	Log     *log.Logger
	DB      Pinger
	Cache   Pinger
	Storage Pinger
}

// Liveness godoc
// @Summary      Liveness probe
// @Description  Проверка, жив ли сервис (не зависит от БД/кэша)
// @Tags         health
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       /v1/healthz [get]
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	const op = "health.liveness"
	reqID := mw.RequestIDFromCtx(r.Context())

	logx.Info(h.Log, reqID, op, "ok")
	v1.WriteOK(w, r, statusResponse{Status: "ok"})
}

// Readiness godoc
// @Summary      Readiness probe
// @Description  Проверка готовности сервиса (пинг БД, Redis и S3)
// @Tags         health
// @Produce      json
// @Success      200  {object}  statusResponse
// @Failure      503  {object}  statusResponse
// @Router       /v1/readyz [get]
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	const op = "health.readiness"
	reqID := mw.RequestIDFromCtx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := []struct {
		name string
		p    Pinger
	}{{"db", h.DB}, {"cache", h.Cache}, {"storage", h.Storage}}

	resp := statusResponse{Status: "ready"}
	for _, c := range checks {
		if c.p == nil {
			continue
		}
		if err := c.p.Ping(ctx); err != nil {
			logx.Error(h.Log, reqID, op, c.name+" ping failed", err)
			resp.Status = "not ready"
			resp.Failed = append(resp.Failed, c.name)
		}
	}

	if len(resp.Failed) > 0 {
		v1.WriteJSON(w, r, http.StatusServiceUnavailable, resp)
		return
	}
	logx.Info(h.Log, reqID, op, "ready")
	v1.WriteOK(w, r, resp)
}
