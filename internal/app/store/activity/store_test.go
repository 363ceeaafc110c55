package activity_test

import (
	"testing"
	"time"

	"github.com/ecellvishnu/espace/internal/app/store/activity"
	"github.com/ecellvishnu/espace/internal/testutil"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Log(ctx, activity.Entry{
		Category:     activity.CategoryAdmin,
		ActivityType: activity.ActivityAdminAccessSuccess,
		Email:        "ops@gmail.com",
		IP:           "192.168.1.1",
		Success:      true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	entries, err := store.Query(ctx, activity.Filter{Email: "ops@gmail.com"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be auto-set")
	}
}

func TestStore_Query_ByActivityType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	types := []string{
		activity.ActivityAdminIdentityDenied,
		activity.ActivityAdminCodeFailure,
		activity.ActivityAdminAccessSuccess,
	}
	for _, at := range types {
		if err := store.Log(ctx, activity.Entry{
			Category:     activity.CategoryAdmin,
			ActivityType: at,
			Email:        "ops@gmail.com",
			Success:      at == activity.ActivityAdminAccessSuccess,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	entries, err := store.Query(ctx, activity.Filter{
		ActivityType: activity.ActivityAdminCodeFailure,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 code-failure entry, got %d", len(entries))
	}
	if entries[0].Success {
		t.Error("code failure must be recorded as failure")
	}
}

func TestStore_Query_TimeRangeAndLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	old := now.Add(-2 * time.Hour)

	if err := store.Log(ctx, activity.Entry{
		Category: activity.CategoryAuth, ActivityType: activity.ActivityLoginSuccess,
		Timestamp: old, Success: true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if err := store.Log(ctx, activity.Entry{
		Category: activity.CategoryAuth, ActivityType: activity.ActivityLoginSuccess,
		Timestamp: now, Success: true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	oneHourAgo := now.Add(-time.Hour)
	entries, err := store.Query(ctx, activity.Filter{StartTime: &oneHourAgo})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 recent entry, got %d", len(entries))
	}
}

func TestStore_Count(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, activity.Entry{
			Category: activity.CategoryAuth, ActivityType: activity.ActivityLogout, Success: true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	count, err := store.Count(ctx, activity.Filter{Category: activity.CategoryAuth})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestStore_RecentGateFailures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	since := time.Now().Add(-time.Hour)

	failures := []string{
		activity.ActivityAdminIdentityDenied,
		activity.ActivityAdminCodeFailure,
	}
	for _, at := range failures {
		if err := store.Log(ctx, activity.Entry{
			Category: activity.CategoryAdmin, ActivityType: at, Success: false,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	// A grant should not appear among failures.
	if err := store.Log(ctx, activity.Entry{
		Category: activity.CategoryAdmin, ActivityType: activity.ActivityAdminAccessSuccess, Success: true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	entries, err := store.RecentGateFailures(ctx, since, 10)
	if err != nil {
		t.Fatalf("RecentGateFailures failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 failures, got %d", len(entries))
	}
}

func TestStore_EnsureIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("Second EnsureIndexes failed: %v", err)
	}
}
