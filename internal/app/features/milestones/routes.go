// internal/app/features/milestones/routes.go
package milestones

import (
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the milestone mutations under "/milestones".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAuthorized)
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/toggle", h.HandleToggle)
	})

	return r
}
