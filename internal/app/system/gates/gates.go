// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, rendering appropriate error
// pages when checks fail.
//
// Route-level middleware (auth.RequireAuthorized, auth.RequireRole,
// auth.RequireAdmin) covers whole route groups; gates are for handlers
// that sit in a mixed-access group and need their own check. Don't use
// a gate behind role-specific middleware that already enforces the same
// role; use authz.UserCtx to read the context instead.
package gates

import (
	"net/http"

	uierrors "github.com/ecellvishnu/espace/internal/app/features/errors"
	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role      string
	Name      string
	ProfileID primitive.ObjectID
	OK        bool
}

// RequireAuth ensures a primary session with a provisioned profile.
// If not, it renders an unauthorized error and returns OK=false.
// The loginURL parameter specifies where to redirect for login.
func RequireAuth(w http.ResponseWriter, r *http.Request, loginURL string) Result {
	role, name, pid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, loginURL)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, ProfileID: pid, OK: true}
}

// RequireAdmin ensures the request holds administrative capability,
// which includes manual admin sessions without a profile. For those,
// Role is reported as "admin" with a nil ProfileID.
func RequireAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string) Result {
	if !authz.IsAdmin(r) {
		uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
		return Result{OK: false}
	}
	role, name, pid, ok := authz.UserCtx(r)
	if !ok {
		return Result{Role: "admin", OK: true}
	}
	return Result{Role: role, Name: name, ProfileID: pid, OK: true}
}

// RequireLeaderOrAdmin ensures the user can manage team content.
func RequireLeaderOrAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string) Result {
	if authz.IsAdmin(r) {
		return RequireAdmin(w, r, forbiddenMsg, fallbackURL)
	}
	role, name, pid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return Result{OK: false}
	}
	if role != "leader" {
		uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, ProfileID: pid, OK: true}
}

// RequireAnyRole ensures the profile has one of the specified roles.
// If not authenticated, renders unauthorized error.
// If authenticated but role not in allowed list, renders forbidden error.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string, allowedRoles ...string) Result {
	role, name, pid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return Result{OK: false}
	}

	for _, allowed := range allowedRoles {
		if role == allowed {
			return Result{Role: role, Name: name, ProfileID: pid, OK: true}
		}
	}

	uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
	return Result{OK: false}
}
