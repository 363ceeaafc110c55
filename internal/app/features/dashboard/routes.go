// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard under the router root.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAuthorized)
		pr.Get("/", h.ServeDashboard)
	})

	return r
}
