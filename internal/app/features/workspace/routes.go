// internal/app/features/workspace/routes.go
package workspace

import (
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the workspace pages under "/workspace".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAuthorized)
		pr.Get("/", h.ServeWorkspace)
		pr.Post("/upload", h.HandleUpload)
	})

	return r
}

// FileRoutes wires the download endpoint under "/files".
func FileRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAuthorized)
		pr.Get("/{key}", h.ServeFile)
	})

	return r
}
