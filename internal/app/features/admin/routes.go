// internal/app/features/admin/routes.go
package admin

import (
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the admin surface under "/admin". Authorized non-admins
// are silently redirected to the default view by the middleware.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAuthorized, sm.RequireAdmin)
		pr.Get("/", h.ServeOverview)
		pr.Post("/teams", h.HandleCreateTeam)
		pr.Post("/teams/{id}/delete", h.HandleDeleteTeam)
		pr.Post("/accounts", h.HandleProvisionAccount)
		pr.Post("/accounts/{id}/role", h.HandleChangeRole)
		pr.Get("/activity", h.ServeActivity)
	})

	return r
}
