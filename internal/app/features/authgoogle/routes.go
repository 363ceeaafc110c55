// internal/app/features/authgoogle/routes.go
package authgoogle

import "github.com/go-chi/chi/v5"

// Routes returns the router for the Google OAuth endpoints. Both are
// public; the callback performs its own state verification.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// GET /auth/google - start the provider flow
	r.Get("/", h.ServeLogin)

	// GET /auth/google/callback - exchange the code, sign the user in
	r.Get("/callback", h.ServeCallback)

	return r
}
