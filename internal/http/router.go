package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dcpm/internal/handlers"
	"dcpm/internal/metrics"
	"dcpm/internal/notes"
	"dcpm/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Facade  service.Facade
	Health  handlers.StoreHealth
	Notes   *notes.Renderer
	Metrics *metrics.Metrics
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware)
	r.Use(RequestLogger(deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	renderer := deps.Notes
	if renderer == nil {
		renderer = notes.NewRenderer()
	}
	projects := handlers.NewProjectHandler(deps.Facade)
	tags := handlers.NewTagHandler(deps.Facade)
	resources := handlers.NewResourceHandler(deps.Facade)
	index := handlers.NewIndexHandler(deps.Facade)
	noteHandler := handlers.NewNoteHandler(deps.Facade, renderer)

	r.Route("/api", func(r chi.Router) {
		if deps.Health != nil {
			r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Health))
		}

		r.Get("/search", projects.Search)
		r.Get("/projects", projects.List)
		r.Post("/projects", projects.Create)
		r.Patch("/projects/{id}", projects.Update)
		r.Post("/projects/{id}/archive", projects.Archive)
		r.Post("/projects/{id}/unarchive", projects.Unarchive)
		r.Post("/projects/{id}/pin", projects.Pin)
		r.Post("/projects/{id}/open", projects.Open)
		r.Get("/stats", projects.Stats)

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tags.List)
			r.Post("/", tags.Add)
			r.Delete("/", tags.Remove)
			r.Post("/disable", tags.Disable)
			r.Post("/enable", tags.Enable)
			r.Get("/suggest", tags.Suggest)
			r.Get("/quick", tags.Quick)
		})

		r.Get("/resources", resources.List)
		r.Post("/resources/match", resources.Match)
		r.Post("/resources/{id}/review", resources.Review)

		r.Post("/index/rebuild", index.Rebuild)
		r.Post("/index/scan", index.Scan)
		r.Get("/jobs/{id}", index.Job)
		r.Delete("/jobs/{id}", index.Cancel)

		r.Get("/notes", noteHandler.Get)
		r.Put("/notes", noteHandler.Save)
		r.Get("/notes/view", noteHandler.View)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}
