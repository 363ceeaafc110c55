package admingate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ecellvishnu/espace/internal/app/features/admingate"
	"github.com/ecellvishnu/espace/internal/app/store/activity"
	"github.com/ecellvishnu/espace/internal/app/system/auditlog"
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/ecellvishnu/espace/internal/app/system/elevation"
	"github.com/ecellvishnu/espace/internal/testutil"
	"go.uber.org/zap"
)

// memRecorder captures audit entries in memory.
type memRecorder struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (m *memRecorder) Log(_ context.Context, e activity.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memRecorder) byType(activityType string) []activity.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []activity.Entry
	for _, e := range m.entries {
		if e.ActivityType == activityType {
			out = append(out, e)
		}
	}
	return out
}

type gateFixture struct {
	handler *admingate.Handler
	sm      *auth.SessionManager
	rec     *memRecorder
	audit   *auditlog.Logger
	cookies []*http.Cookie
}

func newGateFixture(t *testing.T, policy elevation.AttemptPolicy) *gateFixture {
	t.Helper()

	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef",
		"test-session", "", time.Hour, false, testutil.TestPolicy(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	rec := &memRecorder{}
	audit := auditlog.New(rec, zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		audit.Close(ctx)
	})

	cfg := elevation.Config{
		SuperAdminEmail: testutil.TestPolicy().SuperAdminEmail,
		AccessCode:      "open-sesame",
		Policy:          policy,
	}

	return &gateFixture{
		handler: admingate.NewHandler(sm, audit, cfg, zap.NewNop()),
		sm:      sm,
		rec:     rec,
		audit:   audit,
	}
}

// drain flushes the async audit queue so the recorder can be inspected.
func (f *gateFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.audit.Close(ctx); err != nil {
		t.Fatalf("audit drain failed: %v", err)
	}
}

// do runs one gate request as the super admin, carrying cookies from
// earlier requests forward so the gate state survives between them.
func (f *gateFixture) do(t *testing.T, handlerFn http.HandlerFunc, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range f.cookies {
		req.AddCookie(c)
	}
	req = testutil.WithUser(req, testutil.TestUser{
		ID:    "68b000000000000000000001",
		Name:  "Operations",
		Email: testutil.TestPolicy().SuperAdminEmail,
		Role:  "member",
	})

	rec := httptest.NewRecorder()
	// ServeGate renders a template which may panic without initialized
	// templates; the cookie write happens before the render.
	func() {
		defer func() {
			if r := recover(); r != nil {
			}
		}()
		handlerFn(rec, req)
	}()

	if set := rec.Result().Cookies(); len(set) > 0 {
		f.cookies = mergeCookies(f.cookies, set)
	}
	return rec
}

func mergeCookies(existing, set []*http.Cookie) []*http.Cookie {
	byName := make(map[string]*http.Cookie)
	for _, c := range existing {
		byName[c.Name] = c
	}
	for _, c := range set {
		if c.MaxAge < 0 {
			delete(byName, c.Name)
			continue
		}
		byName[c.Name] = c
	}
	out := make([]*http.Cookie, 0, len(byName))
	for _, c := range byName {
		out = append(out, c)
	}
	return out
}

func TestGate_FullGrantFlow(t *testing.T) {
	f := newGateFixture(t, elevation.AttemptPolicy{})

	// Opening the gate starts the identity stage.
	f.do(t, f.handler.ServeGate, "GET", "/admin/gate", nil)

	rec := f.do(t, f.handler.HandleIdentity, "POST", "/admin/gate/identity",
		url.Values{"email": {"Ops@Gmail.com"}}) // display case must not matter
	if loc := rec.Header().Get("Location"); loc != "/admin/gate" {
		t.Fatalf("identity redirect = %q, want /admin/gate", loc)
	}

	rec = f.do(t, f.handler.HandleCode, "POST", "/admin/gate/code",
		url.Values{"code": {"open-sesame"}})
	if loc := rec.Header().Get("Location"); loc != "/admin" {
		t.Fatalf("grant redirect = %q, want /admin", loc)
	}

	// The grant persists the manual admin cookie.
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session-admin" && c.MaxAge >= 0 {
			found = true
		}
	}
	if !found {
		t.Error("manual admin cookie not set on grant")
	}

	f.drain(t)
	// A success record may only exist alongside a persisted admin
	// session, never without one.
	success := f.rec.byType(activity.ActivityAdminAccessSuccess)
	if found && len(success) != 1 {
		t.Errorf("access success records = %d, want 1", len(success))
	}
	if !found && len(success) != 0 {
		t.Errorf("success recorded without a persisted session: %d records", len(success))
	}
	if got := f.rec.byType(activity.ActivityAdminIdentityDenied); len(got) != 0 {
		t.Errorf("identity denied records = %d, want 0", len(got))
	}
}

func TestGate_IdentityDeniedAudited(t *testing.T) {
	f := newGateFixture(t, elevation.AttemptPolicy{})

	f.do(t, f.handler.ServeGate, "GET", "/admin/gate", nil)
	rec := f.do(t, f.handler.HandleIdentity, "POST", "/admin/gate/identity",
		url.Values{"email": {"intruder@vishnu.edu.in"}})

	if loc := rec.Header().Get("Location"); loc != "/admin/gate?error=identity" {
		t.Fatalf("redirect = %q, want /admin/gate?error=identity", loc)
	}

	f.drain(t)
	got := f.rec.byType(activity.ActivityAdminIdentityDenied)
	if len(got) != 1 {
		t.Fatalf("identity denied records = %d, want 1", len(got))
	}
	if got[0].Email != "intruder@vishnu.edu.in" {
		t.Errorf("audited email = %q", got[0].Email)
	}
}

func TestGate_CodeDeniedAudited(t *testing.T) {
	f := newGateFixture(t, elevation.AttemptPolicy{})

	f.do(t, f.handler.ServeGate, "GET", "/admin/gate", nil)
	f.do(t, f.handler.HandleIdentity, "POST", "/admin/gate/identity",
		url.Values{"email": {"ops@gmail.com"}})
	rec := f.do(t, f.handler.HandleCode, "POST", "/admin/gate/code",
		url.Values{"code": {"wrong"}})

	if loc := rec.Header().Get("Location"); loc != "/admin/gate?error=code" {
		t.Fatalf("redirect = %q, want /admin/gate?error=code", loc)
	}

	f.drain(t)
	if got := f.rec.byType(activity.ActivityAdminCodeFailure); len(got) != 1 {
		t.Errorf("code failure records = %d, want 1", len(got))
	}
	if got := f.rec.byType(activity.ActivityAdminAccessSuccess); len(got) != 0 {
		t.Errorf("access success records = %d, want 0", len(got))
	}
}

func TestGate_LockoutRefusesWithoutAuditTag(t *testing.T) {
	f := newGateFixture(t, elevation.AttemptPolicy{MaxFailures: 2, Lockout: time.Minute})

	f.do(t, f.handler.ServeGate, "GET", "/admin/gate", nil)
	f.do(t, f.handler.HandleIdentity, "POST", "/admin/gate/identity",
		url.Values{"email": {"ops@gmail.com"}})

	f.do(t, f.handler.HandleCode, "POST", "/admin/gate/code", url.Values{"code": {"wrong"}})
	f.do(t, f.handler.HandleCode, "POST", "/admin/gate/code", url.Values{"code": {"wrong"}})

	// Third attempt is refused by the lockout, even with the right code.
	rec := f.do(t, f.handler.HandleCode, "POST", "/admin/gate/code",
		url.Values{"code": {"open-sesame"}})
	if loc := rec.Header().Get("Location"); loc != "/admin/gate?error=locked" {
		t.Fatalf("redirect = %q, want /admin/gate?error=locked", loc)
	}

	f.drain(t)
	if got := f.rec.byType(activity.ActivityAdminCodeFailure); len(got) != 2 {
		t.Errorf("code failure records = %d, want 2", len(got))
	}
	if got := f.rec.byType(activity.ActivityAdminAccessSuccess); len(got) != 0 {
		t.Errorf("access success records = %d, want 0", len(got))
	}
}

func TestGate_DismissResetsProgress(t *testing.T) {
	f := newGateFixture(t, elevation.AttemptPolicy{})

	f.do(t, f.handler.ServeGate, "GET", "/admin/gate", nil)
	f.do(t, f.handler.HandleIdentity, "POST", "/admin/gate/identity",
		url.Values{"email": {"ops@gmail.com"}})

	rec := f.do(t, f.handler.HandleDismiss, "POST", "/admin/gate/dismiss", url.Values{})
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("dismiss redirect = %q, want /", loc)
	}
}

func TestGate_HiddenFromNonSuperAdmin(t *testing.T) {
	f := newGateFixture(t, elevation.AttemptPolicy{})

	req := httptest.NewRequest("GET", "/admin/gate", nil)
	req = testutil.WithUser(req, testutil.AdminUser()) // admin role, but not the super admin
	rec := httptest.NewRecorder()

	f.handler.ServeGate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("location = %q, want /", loc)
	}
}
