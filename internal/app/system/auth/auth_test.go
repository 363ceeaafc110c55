package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/ecellvishnu/espace/internal/app/system/domainpolicy"
	"go.uber.org/zap"
)

const (
	testOrgDomain  = "vishnu.edu.in"
	testSuperAdmin = "ops@gmail.com"
)

func testPolicy() domainpolicy.Policy {
	return domainpolicy.Policy{OrgDomain: testOrgDomain, SuperAdminEmail: testSuperAdmin}
}

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		testPolicy(),
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("protected content"))
	})
}

func primaryRequest(method, target, email, role string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "text/html")
	c := &auth.Context{
		Kind:      auth.PrimarySession,
		Principal: &auth.Principal{ID: "sub-1", Email: email, Name: "Test User"},
	}
	if role != "" {
		c.Profile = &auth.SessionProfile{ID: "p1", Name: "Test User", Email: email, Role: role}
	}
	return auth.WithTestContext(req, c, testPolicy())
}

func manualOnlyRequest(method, target, email string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "text/html")
	c := &auth.Context{
		Kind:   auth.ManualElevation,
		Manual: auth.ManualAdmin{Authenticated: true, Email: email},
	}
	return auth.WithTestContext(req, c, testPolicy())
}

func unauthenticatedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "text/html")
	c := &auth.Context{Kind: auth.Unauthenticated}
	return auth.WithTestContext(req, c, testPolicy())
}

/*─────────────────────────────────────────────────────────────────────────────*
| RequireAuthorized                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// Scenario: no primary session, no manual session, any protected route.
func TestRequireAuthorized_NoSession_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAuthorized(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, unauthenticatedRequest("GET", "/workspace"))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireAuthorized_NoSession_API_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAuthorized(okHandler())

	req := httptest.NewRequest("GET", "/api/data", nil)
	req.Header.Set("Accept", "application/json")
	req = auth.WithTestContext(req, &auth.Context{Kind: auth.Unauthenticated}, testPolicy())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAuthorized_NoSession_HTMX_ReturnsHXRedirect(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAuthorized(okHandler())

	req := httptest.NewRequest("GET", "/workspace", nil)
	req.Header.Set("HX-Request", "true")
	req = auth.WithTestContext(req, &auth.Context{Kind: auth.Unauthenticated}, testPolicy())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if hx := rec.Header().Get("HX-Redirect"); !strings.HasPrefix(hx, "/login") {
		t.Errorf("expected HX-Redirect to /login, got %q", hx)
	}
}

func TestRequireAuthorized_InstitutionalEmail_Admitted(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAuthorized(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, primaryRequest("GET", "/", "a@vishnu.edu.in", "member"))

	if rec.Code != http.StatusOK {
		t.Errorf("expected admission, got status %d", rec.Code)
	}
}

// Scenario: valid primary session with an outside email is blocked by
// the domain filter with a terminal denial page, not a redirect.
func TestRequireAuthorized_OutsideDomain_DeniedTerminally(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAuthorized(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, primaryRequest("GET", "/", "x@gmail.com", "member"))

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("domain denial must not redirect, got Location %q", loc)
	}
	if !strings.Contains(rec.Body.String(), "Access Denied") {
		t.Errorf("expected denial page body, got %q", rec.Body.String())
	}
}

// The super-admin email is the only override for the domain filter.
func TestRequireAuthorized_SuperAdminEmail_BypassesDomainFilter(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAuthorized(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, primaryRequest("GET", "/", testSuperAdmin, ""))

	if rec.Code != http.StatusOK {
		t.Errorf("expected admission for super-admin email, got %d", rec.Code)
	}
}

// Manual-admin-only sessions bypass the domain filter entirely.
func TestRequireAuthorized_ManualOnlySession_Admitted(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAuthorized(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, manualOnlyRequest("GET", "/", testSuperAdmin))

	if rec.Code != http.StatusOK {
		t.Errorf("expected admission for manual admin session, got %d", rec.Code)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| RequireRole                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// Scenario: member with a valid institutional session requesting a
// leader-only route is silently sent to the default view.
func TestRequireRole_InsufficientRole_SilentRedirectToDefault(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("leader")(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, primaryRequest("POST", "/milestones", "a@vishnu.edu.in", "member"))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected silent 303 redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to default view /, got %q", loc)
	}
}

func TestRequireRole_MatchingRole_Admitted(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("leader", "admin")(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, primaryRequest("POST", "/milestones", "lead@vishnu.edu.in", "leader"))

	if rec.Code != http.StatusOK {
		t.Errorf("expected admission, got %d", rec.Code)
	}
}

// "Authenticated, no profile" is a valid state that fails role checks.
func TestRequireRole_NilProfile_FailsRoleCheck(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("member")(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, primaryRequest("GET", "/chat", "new@vishnu.edu.in", ""))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected silent redirect for profile-less principal, got %d", rec.Code)
	}
}

func TestRequireRole_EmptySet_AdmitsAnyAuthorized(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, primaryRequest("GET", "/", "new@vishnu.edu.in", ""))

	if rec.Code != http.StatusOK {
		t.Errorf("expected admission with empty role set, got %d", rec.Code)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| RequireAdmin (combined invariant)                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// Scenario A: member with valid primary session requesting the
// admin-only route is redirected to the default view, no denial screen.
func TestRequireAdmin_MemberRole_SilentRedirect(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAdmin(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, primaryRequest("GET", "/admin", "a@vishnu.edu.in", "member"))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected silent 303 redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %q", loc)
	}
	if strings.Contains(rec.Body.String(), "Access Denied") {
		t.Error("role downgrade must not render a denial screen")
	}
}

func TestRequireAdmin_AdminRole_Admitted(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAdmin(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, primaryRequest("GET", "/admin", "head@vishnu.edu.in", "admin"))

	if rec.Code != http.StatusOK {
		t.Errorf("expected admission for admin role, got %d", rec.Code)
	}
}

func TestRequireAdmin_ManualAdminSession_Admitted(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAdmin(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, manualOnlyRequest("GET", "/admin", testSuperAdmin))

	if rec.Code != http.StatusOK {
		t.Errorf("expected admission for manual admin session, got %d", rec.Code)
	}
}

func TestRequireAdmin_SuperAdminPrincipal_Admitted(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireAdmin(okHandler())

	// Super-admin signed in through the primary flow, profile-less.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, primaryRequest("GET", "/admin", testSuperAdmin, ""))

	if rec.Code != http.StatusOK {
		t.Errorf("expected admission for super-admin principal, got %d", rec.Code)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Context invariants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func TestContext_AuthorizedInvariant(t *testing.T) {
	tests := []struct {
		name string
		ctx  *auth.Context
		want bool
	}{
		{"unauthenticated", &auth.Context{Kind: auth.Unauthenticated}, false},
		{"primary", &auth.Context{Kind: auth.PrimarySession, Principal: &auth.Principal{Email: "a@vishnu.edu.in"}}, true},
		{"manual", &auth.Context{Kind: auth.ManualElevation, Manual: auth.ManualAdmin{Authenticated: true, Email: testSuperAdmin}}, true},
		{"nil context", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.ctx != nil {
				req = auth.WithTestContext(req, tt.ctx, testPolicy())
			}
			c, _ := auth.FromRequest(req)
			if got := c.Authorized(); got != tt.want {
				t.Errorf("Authorized() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContext_IsAdminInvariant(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	// Primary session + manual admin session at once: the primary
	// variant wins, but the manual flag still grants admin.
	c := &auth.Context{
		Kind:      auth.PrimarySession,
		Principal: &auth.Principal{ID: "s", Email: "plain@vishnu.edu.in"},
		Profile:   &auth.SessionProfile{Role: "member"},
		Manual:    auth.ManualAdmin{Authenticated: true, Email: testSuperAdmin},
	}
	req = auth.WithTestContext(req, c, testPolicy())
	got, _ := auth.FromRequest(req)
	if !got.IsAdmin() {
		t.Error("manual admin session must grant admin capability alongside a primary session")
	}

	// Manual session for a non-super-admin address grants nothing.
	c2 := &auth.Context{
		Kind:   auth.ManualElevation,
		Manual: auth.ManualAdmin{Authenticated: true, Email: "someone@vishnu.edu.in"},
	}
	req2 := auth.WithTestContext(httptest.NewRequest("GET", "/", nil), c2, testPolicy())
	got2, _ := auth.FromRequest(req2)
	if got2.IsAdmin() {
		t.Error("manual session for a non-super-admin email must not grant admin")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Cookie round-trips through LoadSession                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type staticFetcher struct{ p *auth.SessionProfile }

func (f staticFetcher) FetchProfile(_ context.Context, _ string) *auth.SessionProfile {
	return f.p
}

// signInAndCapture performs SignIn and transfers the Set-Cookie headers
// onto a fresh request, simulating the browser.
func signInAndCapture(t *testing.T, sm *auth.SessionManager, p auth.Principal) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	seed := httptest.NewRequest("GET", "/auth/google/callback", nil)
	if err := sm.SignIn(rec, seed, p); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html")
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestLoadSession_PrimaryRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetProfileFetcher(staticFetcher{&auth.SessionProfile{
		ID: "p1", Name: "Asha", Email: "asha@vishnu.edu.in", Role: "leader",
	}})

	req := signInAndCapture(t, sm, auth.Principal{ID: "sub-9", Email: "asha@vishnu.edu.in", Name: "Asha"})

	var resolved *auth.Context
	handler := sm.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, _ = auth.FromRequest(r)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if resolved == nil || resolved.Kind != auth.PrimarySession {
		t.Fatalf("expected primary session, got %+v", resolved)
	}
	if resolved.Principal.Email != "asha@vishnu.edu.in" {
		t.Errorf("principal email = %q", resolved.Principal.Email)
	}
	if resolved.Profile == nil || resolved.Profile.Role != "leader" {
		t.Errorf("expected leader profile, got %+v", resolved.Profile)
	}
}

func TestLoadSession_NilProfileStillAuthenticated(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetProfileFetcher(staticFetcher{nil}) // fetch failure / missing row

	req := signInAndCapture(t, sm, auth.Principal{ID: "sub-9", Email: "new@vishnu.edu.in"})

	var resolved *auth.Context
	sm.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, _ = auth.FromRequest(r)
	})).ServeHTTP(httptest.NewRecorder(), req)

	if resolved == nil || resolved.Kind != auth.PrimarySession {
		t.Fatal("fetch failure must not fail resolution")
	}
	if resolved.Profile != nil {
		t.Error("expected nil profile")
	}
}

func TestManualAdmin_GrantAndSignOutClearsBoth(t *testing.T) {
	sm := newTestSessionManager(t)

	// Grant the manual admin session.
	rec := httptest.NewRecorder()
	seed := httptest.NewRequest("POST", "/admin/gate/code", nil)
	if err := sm.GrantManualAdmin(rec, seed, testSuperAdmin); err != nil {
		t.Fatalf("GrantManualAdmin: %v", err)
	}

	req := httptest.NewRequest("GET", "/admin", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	var resolved *auth.Context
	sm.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, _ = auth.FromRequest(r)
	})).ServeHTTP(httptest.NewRecorder(), req)

	if resolved == nil || resolved.Kind != auth.ManualElevation {
		t.Fatalf("expected manual elevation, got %+v", resolved)
	}
	if !resolved.Manual.Authenticated || resolved.Manual.Email != testSuperAdmin {
		t.Errorf("manual session = %+v", resolved.Manual)
	}

	// Sign-out clears the manual session cookie too.
	outRec := httptest.NewRecorder()
	if err := sm.SignOut(outRec, req); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	cleared := false
	for _, c := range outRec.Result().Cookies() {
		if c.Name == "test-session-admin" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected manual admin cookie to be expired on sign-out")
	}
}
