package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contesthub/internal/core"
	"contesthub/internal/types"
)

// JobTrigger runs one background job on demand and returns a summary payload.
type JobTrigger func(ctx context.Context) (any, error)

// JobsHandler exposes manual triggers for the background jobs, for operators
// and integration tests. Triggers run synchronously within the request
// timeout.
type JobsHandler struct {
	triggers map[string]JobTrigger
	logger   *slog.Logger
}

// NewJobsHandler creates a JobsHandler. triggers maps the job name in the URL
// to its runner.
func NewJobsHandler(triggers map[string]JobTrigger, logger *slog.Logger) *JobsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsHandler{
		triggers: triggers,
		logger:   logger,
	}
}

// RegisterRoutes mounts the job trigger endpoints onto the mux.
func (h *JobsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/{jobName}", h.HandleTrigger)
}

// HandleTrigger handles POST /v1/jobs/{jobName}.
func (h *JobsHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "jobName")
	trigger, ok := h.triggers[name]
	if !ok {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeNotFoundJob,
			"unknown job: "+name,
			nil,
		))
		return
	}

	h.logger.InfoContext(r.Context(), "manual job trigger", "job", name)
	summary, err := trigger(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: summary})
}
