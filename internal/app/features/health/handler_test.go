package health_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecellvishnu/espace/internal/app/features/health"
	"github.com/ecellvishnu/espace/internal/testutil"
	"go.uber.org/zap"
)

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), zap.NewNop())

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Serve(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("body missing ok status: %s", body)
	}
	if !strings.Contains(body, `"database":"connected"`) {
		t.Errorf("body missing database state: %s", body)
	}
}
