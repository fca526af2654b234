package handlers

import (
	"html/template"
	"net/http"
	"path"

	"dcpm/internal/contextutil"
	"dcpm/internal/notes"
	"dcpm/internal/service"
)

// NoteHandler serves item notes as JSON and as rendered HTML pages.
type NoteHandler struct {
	facade   service.Facade
	renderer *notes.Renderer
	template *template.Template
}

// notePageData holds template data for rendered note pages.
type notePageData struct {
	Title   string
	Path    string
	Updated string
	Content template.HTML
}

// NoteRequest is the body of PUT /api/notes.
type NoteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// NewNoteHandler creates a new handler for item notes.
func NewNoteHandler(facade service.Facade, renderer *notes.Renderer) *NoteHandler {
	tmpl := template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'PingFang SC', 'Microsoft YaHei', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
      color: #1f2937;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid #e5e7eb;
      padding-bottom: 1rem;
    }
    pre {
      background: #f3f4f6;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 8px;
    }
    table {
      border-collapse: collapse;
    }
    td, th {
      border: 1px solid #d1d5db;
      padding: 0.25rem 0.75rem;
    }
    .meta {
      color: #6b7280;
      font-size: 0.9rem;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">{{.Path}} &middot; {{.Updated}}</p>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &NoteHandler{facade: facade, renderer: renderer, template: tmpl}
}

// Get handles GET /api/notes?path=.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.facade.GetNote(ctx, r.URL.Query().Get("path"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get note")
		return
	}
	writeJSON(ctx, w, http.StatusOK, n)
}

// Save handles PUT /api/notes. Empty content deletes the note.
func (h *NoteHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req NoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.facade.SaveNote(ctx, req.Path, req.Content)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to save note")
		return
	}
	if req.Content == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(ctx, w, http.StatusOK, n)
}

// View handles GET /api/notes/view?path= and renders the note as HTML.
func (h *NoteHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	n, err := h.facade.GetNote(ctx, r.URL.Query().Get("path"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get note")
		return
	}
	htmlContent, err := h.renderer.HTML(n.Content)
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "path", n.Path, "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}

	pageData := notePageData{
		Title:   path.Base(n.Path),
		Path:    n.Path,
		Updated: n.UpdateTime.Format("2006-01-02 15:04"),
		Content: template.HTML(htmlContent),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute note template", "path", n.Path, "error", err)
	}
}
