package handlers

import (
	"net/http"

	"dcpm/internal/service"
)

// TagHandler serves file tag reads and edits.
type TagHandler struct {
	facade service.Facade
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(facade service.Facade) *TagHandler {
	return &TagHandler{facade: facade}
}

// TagRequest is the body of POST /api/tags.
type TagRequest struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// TagRef names one tag of one item.
type TagRef struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// List handles GET /api/tags?path=.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tags, err := h.facade.TagsFor(ctx, r.URL.Query().Get("path"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list tags")
		return
	}
	writeJSON(ctx, w, http.StatusOK, tags)
}

// Add handles POST /api/tags.
func (h *TagHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req TagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tag, err := h.facade.AddTag(ctx, service.TagRequest{Path: req.Path, Name: req.Name, Category: req.Category})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to add tag")
		return
	}
	writeJSON(ctx, w, http.StatusCreated, tag)
}

// Remove handles DELETE /api/tags?path=&name=.
func (h *TagHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	if err := h.facade.RemoveTag(ctx, q.Get("path"), q.Get("name")); err != nil {
		handleServiceError(w, ctx, err, "Failed to remove tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Disable handles POST /api/tags/disable.
func (h *TagHandler) Disable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req TagRef
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.facade.DisableAutoTag(ctx, req.Path, req.Name); err != nil {
		handleServiceError(w, ctx, err, "Failed to disable tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Enable handles POST /api/tags/enable.
func (h *TagHandler) Enable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req TagRef
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.facade.EnableAutoTag(ctx, req.Path, req.Name); err != nil {
		handleServiceError(w, ctx, err, "Failed to enable tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Suggest handles GET /api/tags/suggest?name=.
func (h *TagHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.facade.SuggestTags(ctx, r.URL.Query().Get("name"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to suggest tags")
		return
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// Quick handles GET /api/tags/quick.
func (h *TagHandler) Quick(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.facade.QuickTags(r.Context()))
}
