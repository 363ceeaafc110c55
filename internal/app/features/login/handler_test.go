package login_test

import (
	"net/http/httptest"
	"testing"

	"github.com/ecellvishnu/espace/internal/app/features/login"
	"github.com/ecellvishnu/espace/internal/testutil"
	"go.uber.org/zap"
)

func TestServeLogin_AlreadySignedIn(t *testing.T) {
	handler := login.NewHandler("vishnu.edu.in", true, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/login", testutil.AdminUser())
	rec := testutil.NewRecorder()

	handler.ServeLogin(rec.ResponseRecorder, req)

	rec.AssertRedirect(t, "/")
}

func TestServeLogin_Unauthenticated(t *testing.T) {
	handler := login.NewHandler("vishnu.edu.in", true, zap.NewNop())

	req := httptest.NewRequest("GET", "/login?error=domain", nil)
	rec := httptest.NewRecorder()

	// Handler will try to render a template which may panic without
	// initialized templates.
	func() {
		defer func() {
			if r := recover(); r != nil {
			}
		}()
		handler.ServeLogin(rec, req)
	}()

	// No redirect: the page renders in place for anonymous visitors.
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("unexpected redirect to %q", loc)
	}
}
