package teamstore_test

import (
	"testing"

	teamstore "github.com/ecellvishnu/espace/internal/app/store/teams"
	"github.com/ecellvishnu/espace/internal/testutil"
)

func TestStore_CreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team, err := store.Create(ctx, "  Team Rocket ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if team.Name != "Team Rocket" {
		t.Errorf("name not normalized: %q", team.Name)
	}

	if _, err := store.Create(ctx, "Alpha"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	teams, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}
	if teams[0].Name != "Alpha" {
		t.Errorf("expected name-sorted order, got %q first", teams[0].Name)
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	if _, err := store.Create(ctx, "Innovators"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, "INNOVATORS"); err != teamstore.ErrDuplicateName {
		t.Errorf("expected ErrDuplicateName for case-folded duplicate, got %v", err)
	}
}

func TestStore_SetProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team, err := store.Create(ctx, "Builders")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	project := fx.CreateProject(ctx, team.ID, "Smart Campus")

	if err := store.SetProject(ctx, team.ID, project.ID); err != nil {
		t.Fatalf("SetProject failed: %v", err)
	}
	got, err := store.GetByID(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ProjectID == nil || *got.ProjectID != project.ID {
		t.Error("expected project linked to team")
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team, err := store.Create(ctx, "Doomed")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	n, err := store.Delete(ctx, team.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 teams, got %d", count)
	}
}
