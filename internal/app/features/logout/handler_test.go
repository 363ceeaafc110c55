package logout_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecellvishnu/espace/internal/app/features/logout"
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/ecellvishnu/espace/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *logout.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"0123456789abcdef0123456789abcdef",
		"test-session", "", time.Hour, false,
		testutil.TestPolicy(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return logout.NewHandler(sm, nil, zap.NewNop())
}

func TestServeLogout_RedirectsToLogin(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewAuthenticatedRequest("POST", "/logout", testutil.MemberUser(primitive.NewObjectID()))
	rec := httptest.NewRecorder()

	h.ServeLogout(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("location = %q, want /login", loc)
	}

	// Both session cookies must be expired.
	cookies := rec.Result().Cookies()
	var sawPrimary, sawAdmin bool
	for _, c := range cookies {
		switch c.Name {
		case "test-session":
			sawPrimary = true
			if c.MaxAge >= 0 {
				t.Errorf("primary cookie not expired: MaxAge=%d", c.MaxAge)
			}
		case "test-session-admin":
			sawAdmin = true
			if c.MaxAge >= 0 {
				t.Errorf("admin cookie not expired: MaxAge=%d", c.MaxAge)
			}
		}
	}
	if !sawPrimary || !sawAdmin {
		t.Errorf("expected deletion cookies for both sessions, got primary=%v admin=%v", sawPrimary, sawAdmin)
	}
}

func TestServeLogout_HTMX(t *testing.T) {
	h := newHandler(t)

	req := httptest.NewRequest("POST", "/logout", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	h.ServeLogout(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q, want /login", got)
	}
}
