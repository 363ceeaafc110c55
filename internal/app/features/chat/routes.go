// internal/app/features/chat/routes.go
package chat

import (
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the team channel under "/chat".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAuthorized)
		pr.Get("/", h.ServeChat)
		pr.Post("/", h.HandlePost)
	})

	return r
}
