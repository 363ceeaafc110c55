// internal/app/system/auth/context.go
package auth

import (
	"context"
	"net/http"

	"github.com/ecellvishnu/espace/internal/app/system/domainpolicy"
)

// Kind is the authorization variant of a request. Exactly one variant
// applies at a time; when both a primary session and a manual admin
// session exist, the primary session wins and the manual session is
// carried alongside for capability checks.
type Kind int

const (
	// Unauthenticated means no primary session and no manual admin session.
	Unauthenticated Kind = iota
	// PrimarySession means a valid identity-provider session exists.
	PrimarySession
	// ManualElevation means no primary session, but the elevation-gate
	// admin session is authenticated.
	ManualElevation
)

// Principal is the read-only mirror of the identity-provider record for
// the lifetime of the session.
type Principal struct {
	ID    string // provider subject
	Email string
	Name  string
}

// SessionProfile is the per-request view of the application profile.
// It is fetched fresh on every request, so role changes take effect
// immediately and no stale cached profile can overwrite newer state.
type SessionProfile struct {
	ID        string
	Name      string
	Email     string
	Role      string
	TeamID    string
	AvatarURL string
}

// ManualAdmin is the elevation-gate session state, persisted in its own
// browser-session cookie independent of the provider session.
type ManualAdmin struct {
	Authenticated bool
	Email         string
}

// Context is the authorization context resolved once per request by
// LoadSession. All admission decisions read this snapshot; nothing else
// in the application consults session state directly.
type Context struct {
	Kind      Kind
	Principal *Principal      // non-nil iff Kind == PrimarySession
	Profile   *SessionProfile // may be nil: "authenticated, no profile" is a valid state
	Manual    ManualAdmin

	policy domainpolicy.Policy
}

// Authorized reports whether the request may reach protected content:
// a valid primary session or an authenticated manual admin session.
func (c *Context) Authorized() bool {
	return c != nil && c.Kind != Unauthenticated
}

// PassesDomainFilter applies the organizational domain policy.
// Manual-elevation sessions bypass it: they were already authenticated
// through the gate's own identity check. The filter is only defined
// for a non-nil principal; unauthenticated contexts fail closed.
func (c *Context) PassesDomainFilter() bool {
	if c == nil {
		return false
	}
	switch c.Kind {
	case ManualElevation:
		return true
	case PrimarySession:
		return c.policy.Allows(c.Principal.Email)
	default:
		return false
	}
}

// IsAdmin reports whether the request holds administrative capability:
// an admin-role profile, an authenticated manual admin session for the
// super-admin address, or a primary session whose principal is the
// super-admin address.
func (c *Context) IsAdmin() bool {
	if c == nil {
		return false
	}
	if c.Profile != nil && c.Profile.Role == "admin" {
		return true
	}
	if c.Manual.Authenticated && c.policy.IsSuperAdmin(c.Manual.Email) {
		return true
	}
	if c.Kind == PrimarySession && c.policy.IsSuperAdmin(c.Principal.Email) {
		return true
	}
	return false
}

// IsSuperAdmin reports whether the current principal is the configured
// super-admin identity (the only identity allowed to open the
// elevation gate).
func (c *Context) IsSuperAdmin() bool {
	if c == nil {
		return false
	}
	if c.Kind == PrimarySession && c.policy.IsSuperAdmin(c.Principal.Email) {
		return true
	}
	return c.Manual.Authenticated && c.policy.IsSuperAdmin(c.Manual.Email)
}

// Role returns the profile role, or "" when no profile is present.
// A nil profile fails every role check downstream.
func (c *Context) Role() string {
	if c == nil || c.Profile == nil {
		return ""
	}
	return c.Profile.Role
}

// Email returns the best-known email for the request: the primary
// principal's address, or the manual admin address.
func (c *Context) Email() string {
	if c == nil {
		return ""
	}
	if c.Principal != nil {
		return c.Principal.Email
	}
	if c.Manual.Authenticated {
		return c.Manual.Email
	}
	return ""
}

type ctxKey string

const authContextKey ctxKey = "authContext"

// FromRequest returns the resolved authorization context and a found
// flag. Handlers behind LoadSession always find one.
func FromRequest(r *http.Request) (*Context, bool) {
	c, ok := r.Context().Value(authContextKey).(*Context)
	return c, ok
}

func withContext(r *http.Request, c *Context) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), authContextKey, c))
}

// WithTestContext injects an authorization context into the request for
// handler tests, bypassing cookie resolution.
func WithTestContext(r *http.Request, c *Context, policy domainpolicy.Policy) *http.Request {
	c.policy = policy
	return withContext(r, c)
}
