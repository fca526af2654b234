package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dcpm/internal/contextutil"
	"dcpm/internal/service"
)

// IndexHandler handles HTTP requests for rebuilds, scans and their jobs.
type IndexHandler struct {
	facade service.Facade
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(facade service.Facade) *IndexHandler {
	return &IndexHandler{facade: facade}
}

// Rebuild handles POST /api/index/rebuild.
func (h *IndexHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "rebuild triggered via API")
	job, err := h.facade.TriggerRebuild(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to start rebuild")
		return
	}
	writeJob(w, r, job)
}

// Scan handles POST /api/index/scan.
func (h *IndexHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "scan triggered via API")
	job, err := h.facade.TriggerScan(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to start scan")
		return
	}
	writeJob(w, r, job)
}

// Job handles GET /api/jobs/{id}.
func (h *IndexHandler) Job(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, err := h.facade.Job(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get job")
		return
	}
	writeJSON(ctx, w, http.StatusOK, job.Status())
}

// Cancel handles DELETE /api/jobs/{id}. Work already committed stays.
func (h *IndexHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, err := h.facade.Job(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get job")
		return
	}
	job.Cancel()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "job cancellation requested", "job_id", job.ID())
	writeJSON(ctx, w, http.StatusAccepted, job.Status())
}

// writeJob answers a trigger with 202 and the job's status.
func writeJob(w http.ResponseWriter, r *http.Request, job *service.Job) {
	w.Header().Set("Location", "/api/jobs/"+job.ID())
	writeJSON(r.Context(), w, http.StatusAccepted, job.Status())
}
