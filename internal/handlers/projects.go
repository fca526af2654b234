package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dcpm/internal/service"
)

// ProjectHandler serves search, listing and per-project actions.
type ProjectHandler struct {
	facade service.Facade
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(facade service.Facade) *ProjectHandler {
	return &ProjectHandler{facade: facade}
}

// PinRequest is the body of POST /api/projects/{id}/pin.
type PinRequest struct {
	Pinned bool `json:"pinned"`
}

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Month        string   `json:"month"`
	Name         string   `json:"name"`
	Customer     string   `json:"customer"`
	CustomerCode string   `json:"customer_code"`
	PartNumber   string   `json:"part_number"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
}

// UpdateProjectRequest is the body of PATCH /api/projects/{id}. Absent
// fields are left unchanged.
type UpdateProjectRequest struct {
	Status      *string   `json:"status"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

// Search handles GET /api/search?q=&limit=&include_archived=.
func (h *ProjectHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequest(w, "limit", err.Error())
		return
	}
	archived, err := queryBool(r, "include_archived")
	if err != nil {
		badRequest(w, "include_archived", err.Error())
		return
	}

	req := service.SearchRequest{Query: r.URL.Query().Get("q"), Limit: limit}
	if archived != nil {
		req.IncludeArchived = *archived
	}
	out, err := h.facade.Search(ctx, req)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to search")
		return
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// List handles GET /api/projects?status=&tag=&pinned=.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pinned, err := queryBool(r, "pinned")
	if err != nil {
		badRequest(w, "pinned", err.Error())
		return
	}
	q := r.URL.Query()
	out, err := h.facade.ListProjects(ctx, service.ListRequest{
		Status: q.Get("status"),
		Tag:    q.Get("tag"),
		Pinned: pinned,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list projects")
		return
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// Stats handles GET /api/stats.
func (h *ProjectHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := h.facade.GetStats(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to compute stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, st)
}

// Pin handles POST /api/projects/{id}/pin.
func (h *ProjectHandler) Pin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req PinRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.facade.SetPinned(ctx, chi.URLParam(r, "id"), req.Pinned); err != nil {
		handleServiceError(w, ctx, err, "Failed to pin project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Open handles POST /api/projects/{id}/open.
func (h *ProjectHandler) Open(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.facade.MarkOpened(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, ctx, err, "Failed to record project open")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Create handles POST /api/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.facade.CreateProject(ctx, service.CreateProjectRequest(req))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to create project")
		return
	}
	writeJSON(ctx, w, http.StatusCreated, out)
}

// Update handles PATCH /api/projects/{id}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req UpdateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.facade.UpdateProject(ctx, chi.URLParam(r, "id"), service.ProjectUpdate(req))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update project")
		return
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// Archive handles POST /api/projects/{id}/archive.
func (h *ProjectHandler) Archive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.facade.ArchiveProject(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to archive project")
		return
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// Unarchive handles POST /api/projects/{id}/unarchive?status=.
func (h *ProjectHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.facade.UnarchiveProject(ctx, chi.URLParam(r, "id"), r.URL.Query().Get("status"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to unarchive project")
		return
	}
	writeJSON(ctx, w, http.StatusOK, out)
}
