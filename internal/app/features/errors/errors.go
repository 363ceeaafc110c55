// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the basic view model for error pages.
type pageData struct {
	Title      string
	IsLoggedIn bool
	Role       string
	UserName   string
	Message    string
	BackURL    string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct {
	orgDomain string
}

// NewHandler constructs an errors Handler. orgDomain appears in the
// domain-denial message so users know which addresses are accepted.
func NewHandler(orgDomain string) *Handler {
	return &Handler{orgDomain: orgDomain}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)

	data := pageData{
		Title:      "Access denied",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    "You don't have permission to view this page.",
		BackURL:    "/",
	}

	templates.Render(w, r, "error_forbidden", data)
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)

	data := pageData{
		Title:      "Sign in required",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    "Please sign in to continue.",
		BackURL:    "/login",
	}

	templates.Render(w, r, "error_forbidden", data)
}

// DomainDenied renders the terminal denial page shown when a signed-in
// account is outside the institutional domain. This is a dead end: the
// only way forward is back to the login entry point with a different
// account.
// Wired into the session manager as the domain-deny handler.
func (h *Handler) DomainDenied(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:   "Access denied",
		Message: "e-Space is only accessible with an institutional email address (@" + h.orgDomain + ").",
		BackURL: "/login",
	}

	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_domain_denied", data)
}
