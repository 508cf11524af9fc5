// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ameyrk/gutengo/internal/core"
)

// Server holds the dependencies for our API.
type Server struct {
	app *core.App
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{app: app}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleGetVersion)
		r.Get("/importers", s.handleListImporters)

		r.Post("/import", s.handleSubmitImport)
		r.Post("/import/preview", s.handlePreviewImport)
		r.Post("/import/detect", s.handleDetectSource)
		r.Get("/import/{runID}/progress", s.handleGetProgress)
		r.Post("/import/{runID}/cancel", s.handleCancelImport)

		r.Get("/history", s.handleGetHistory)
		r.Delete("/history/{entryID}", s.handleDeleteHistory)
	})

	// WebSocket route for streaming run progress.
	r.Get("/ws/import/{runID}/progress", func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")
		s.app.Hub.ServeRun(w, r, runID, s.app.Tracker)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.app.DB.Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Downloaded images are served from the asset directory.
	FileServer(r, "/assets/", http.Dir(s.app.Assets.Dir()))

	return r
}

// FileServer conveniently sets up a static file server that doesn't list directories.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	fs := http.StripPrefix(path, http.FileServer(root))
	r.Get(path+"*", func(w http.ResponseWriter, r *http.Request) {
		fs.ServeHTTP(w, r)
	})
}
