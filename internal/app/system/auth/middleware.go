// internal/app/system/auth/middleware.go
package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// RequireAuthorized is the route guard applied to every protected view.
// Admission composes, in order:
//
//  1. authorization (primary session OR manual admin session); failure
//     redirects to the login entry point;
//  2. the organizational domain filter, applied only when a primary
//     principal exists; failure renders the terminal denial page.
//
// Manual-admin-only sessions skip the domain filter: the elevation
// gate already verified their identity.
//
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireAuthorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := FromRequest(r)
		if !c.Authorized() {
			sm.redirectToLogin(w, r)
			return
		}
		if !c.PassesDomainFilter() {
			sm.renderDomainDenied(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits only profiles whose role is in the allowed set.
// An insufficient role is a silent downgrade: the request is redirected
// to the default view, never shown an error page. A nil profile
// ("authenticated, no profile") fails every role check.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, _ := FromRequest(r)
			if !c.Authorized() {
				sm.redirectToLogin(w, r)
				return
			}
			if !c.PassesDomainFilter() {
				sm.renderDomainDenied(w, r)
				return
			}
			if len(set) > 0 {
				if _, has := set[strings.ToLower(c.Role())]; !has {
					redirectSilently(w, r, "/")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits requests holding administrative capability per
// the combined invariant (admin-role profile, super-admin principal,
// or manual admin session). Authorized non-admins are silently
// redirected to the default view.
func (sm *SessionManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := FromRequest(r)
		if !c.Authorized() {
			sm.redirectToLogin(w, r)
			return
		}
		if !c.PassesDomainFilter() {
			sm.renderDomainDenied(w, r)
			return
		}
		if !c.IsAdmin() {
			redirectSilently(w, r, "/")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (sm *SessionManager) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	ret := url.QueryEscape(currentURI(r))

	// HTMX: full-page client redirect (no partial swap)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login?return="+ret)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if wantsHTML(r) {
		http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
		return
	}

	// Non-HTML (API) callers: plain 401
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// renderDomainDenied renders the terminal denial state. This is a
// dead end, not a redirect: no child route is reached and no further
// data is fetched. The only recovery offered is the login entry point.
func (sm *SessionManager) renderDomainDenied(w http.ResponseWriter, r *http.Request) {
	if sm.denyPage != nil {
		sm.denyPage.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`<!doctype html><title>Access Denied</title>` +
		`<h1>Access Denied</h1>` +
		`<p>e-Space is only accessible with an institutional email address.</p>` +
		`<p><a href="/login">Go back</a></p>`))
}

// redirectSilently sends the request to dest without surfacing any
// error (the role downgrade path).
func redirectSilently(w http.ResponseWriter, r *http.Request, dest string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusForbidden)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	// Preserve path + query as a return param.
	u := *r.URL
	return u.RequestURI()
}
