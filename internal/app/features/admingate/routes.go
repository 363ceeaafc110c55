// internal/app/features/admingate/routes.go
package admingate

import (
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the access gate under "/admin/gate". Every handler
// re-checks the super-admin identity itself; the middleware only
// requires a session.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAuthorized)
		pr.Get("/", h.ServeGate)
		pr.Post("/identity", h.HandleIdentity)
		pr.Post("/code", h.HandleCode)
		pr.Post("/back", h.HandleBack)
		pr.Post("/dismiss", h.HandleDismiss)
	})

	return r
}
