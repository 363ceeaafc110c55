// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the profile's role (lowercased), name, Mongo ObjectID,
// and a found flag. ok=true means a primary session with a provisioned
// profile whose ID parses; manual-admin-only sessions and profile-less
// principals return "visitor", "", NilObjectID, false so callers can
// trust ok for profile-scoped work.
func UserCtx(r *http.Request) (role string, name string, profileID primitive.ObjectID, ok bool) {
	c, found := auth.FromRequest(r)
	if !found || c == nil || c.Kind != auth.PrimarySession || c.Profile == nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	profileID, err := primitive.ObjectIDFromHex(c.Profile.ID)
	if err != nil {
		// Malformed profile ID means session corruption; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(c.Profile.Role), c.Profile.Name, profileID, true
}

// IsAdmin reports whether the request holds administrative capability.
// This includes manual admin sessions and the super-admin principal,
// not just admin-role profiles.
func IsAdmin(r *http.Request) bool {
	c, ok := auth.FromRequest(r)
	return ok && c.IsAdmin()
}

// IsSuperAdmin reports whether the request's identity is the configured
// super-admin address.
func IsSuperAdmin(r *http.Request) bool {
	c, ok := auth.FromRequest(r)
	return ok && c.IsSuperAdmin()
}

// IsLeader reports whether the current profile has the leader role.
func IsLeader(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "leader"
}

// IsMember reports whether the current profile has the member role.
func IsMember(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "member"
}

// Email returns the best-known email for the request, or "".
func Email(r *http.Request) string {
	c, ok := auth.FromRequest(r)
	if !ok {
		return ""
	}
	return c.Email()
}

// UserTeamID returns the current profile's team ID as an ObjectID.
// Returns NilObjectID when signed out or not on a team.
func UserTeamID(r *http.Request) primitive.ObjectID {
	c, ok := auth.FromRequest(r)
	if !ok || c == nil || c.Profile == nil || c.Profile.TeamID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(c.Profile.TeamID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}
