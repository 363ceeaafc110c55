// internal/app/features/meet/routes.go
package meet

import (
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the meeting room pages under "/meet".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAuthorized)
		pr.Get("/", h.ServeMeet)
		pr.Post("/rooms", h.HandleCreateRoom)
	})

	return r
}
