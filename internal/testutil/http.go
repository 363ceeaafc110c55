// internal/testutil/http.go
package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/ecellvishnu/espace/internal/app/system/domainpolicy"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestPolicy is the domain policy handler tests run under.
func TestPolicy() domainpolicy.Policy {
	return domainpolicy.Policy{
		OrgDomain:       "vishnu.edu.in",
		SuperAdminEmail: "ops@gmail.com",
	}
}

// TestUser represents profile data for testing HTTP handlers.
type TestUser struct {
	ID     string
	Name   string
	Email  string
	Role   string
	TeamID string
}

// AdminUser returns a TestUser with admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@vishnu.edu.in",
		Role:  "admin",
	}
}

// LeaderUser returns a TestUser with leader role on the given team.
func LeaderUser(teamID primitive.ObjectID) TestUser {
	return TestUser{
		ID:     primitive.NewObjectID().Hex(),
		Name:   "Test Leader",
		Email:  "leader@vishnu.edu.in",
		Role:   "leader",
		TeamID: teamID.Hex(),
	}
}

// MemberUser returns a TestUser with member role on the given team.
func MemberUser(teamID primitive.ObjectID) TestUser {
	return TestUser{
		ID:     primitive.NewObjectID().Hex(),
		Name:   "Test Member",
		Email:  "member@vishnu.edu.in",
		Role:   "member",
		TeamID: teamID.Hex(),
	}
}

// WithUser injects a primary session with a provisioned profile into
// the request context, bypassing cookie resolution.
func WithUser(r *http.Request, user TestUser) *http.Request {
	c := &auth.Context{
		Kind:      auth.PrimarySession,
		Principal: &auth.Principal{ID: "sub-" + user.ID, Email: user.Email, Name: user.Name},
		Profile: &auth.SessionProfile{
			ID:     user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
			TeamID: user.TeamID,
		},
	}
	return auth.WithTestContext(r, c, TestPolicy())
}

// WithManualAdmin injects a manual-admin-only session for the given email.
func WithManualAdmin(r *http.Request, email string) *http.Request {
	c := &auth.Context{
		Kind:   auth.ManualElevation,
		Manual: auth.ManualAdmin{Authenticated: true, Email: email},
	}
	return auth.WithTestContext(r, c, TestPolicy())
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with a profile in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	location := r.Header().Get("Location")
	if location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	body := r.Body.String()
	if !contains(body, expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 || findSubstring(s, substr))
}

func findSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
