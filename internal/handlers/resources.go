package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dcpm/internal/service"
)

// ResourceHandler serves external resource listing and review.
type ResourceHandler struct {
	facade service.Facade
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(facade service.Facade) *ResourceHandler {
	return &ResourceHandler{facade: facade}
}

// ReviewRequest is the body of POST /api/resources/{id}/review.
type ReviewRequest struct {
	Status string `json:"status"`
}

// MatchRequest is the optional body of POST /api/resources/match.
type MatchRequest struct {
	ProjectID string `json:"project_id,omitempty"`
}

// List handles GET /api/resources?project_id=&status=&unassigned=.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unassigned, err := queryBool(r, "unassigned")
	if err != nil {
		badRequest(w, "unassigned", err.Error())
		return
	}
	q := r.URL.Query()
	req := service.ResourceQuery{ProjectID: q.Get("project_id"), Status: q.Get("status")}
	if unassigned != nil {
		req.Unassigned = *unassigned
	}
	out, err := h.facade.ExternalResources(ctx, req)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list resources")
		return
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// Review handles POST /api/resources/{id}/review.
func (h *ResourceHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "id", "id must be an integer")
		return
	}
	var req ReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.facade.ReviewExternalResource(ctx, id, req.Status); err != nil {
		handleServiceError(w, ctx, err, "Failed to review resource")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Match handles POST /api/resources/match. An empty body matches every
// project.
func (h *ResourceHandler) Match(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req MatchRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	job, err := h.facade.TriggerMatch(ctx, req.ProjectID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to start resource matching")
		return
	}
	writeJob(w, r, job)
}
