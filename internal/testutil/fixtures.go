// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ecellvishnu/espace/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateProfile creates a test profile with the given role.
func (f *Fixtures) CreateProfile(ctx context.Context, fullName, email, role string) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Profile{
		ID:          primitive.NewObjectID(),
		PrincipalID: "sub-" + primitive.NewObjectID().Hex(),
		FullName:    fullName,
		Email:       email,
		EmailCI:     text.Fold(email),
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateProfileOnTeam creates a test profile assigned to a team.
func (f *Fixtures) CreateProfileOnTeam(ctx context.Context, fullName, email, role string, teamID primitive.ObjectID) models.Profile {
	f.t.Helper()

	p := f.CreateProfile(ctx, fullName, email, role)
	if _, err := f.db.Collection("profiles").UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{"team_id": teamID}},
	); err != nil {
		f.t.Fatalf("failed to assign test profile to team: %v", err)
	}
	p.TeamID = &teamID
	return p
}

// CreateTeam creates a test team with the given name.
func (f *Fixtures) CreateTeam(ctx context.Context, name string) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	return team
}

// CreateProject creates a test project for a team.
func (f *Fixtures) CreateProject(ctx context.Context, teamID primitive.ObjectID, title string) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	project := models.Project{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		Title:     title,
		Status:    models.ProjectOnTrack,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("projects").InsertOne(ctx, project); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// CreateMilestone creates a test milestone for a project.
func (f *Fixtures) CreateMilestone(ctx context.Context, projectID primitive.ObjectID, title string, due time.Time, done bool) models.Milestone {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Milestone{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		Title:     title,
		DueDate:   due,
		Done:      done,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("milestones").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test milestone: %v", err)
	}
	return m
}

// CreateRoom creates a test meeting room for a team.
func (f *Fixtures) CreateRoom(ctx context.Context, teamID primitive.ObjectID, name string) models.Room {
	f.t.Helper()

	room := models.Room{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		Name:      name,
		Code:      uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("rooms").InsertOne(ctx, room); err != nil {
		f.t.Fatalf("failed to create test room: %v", err)
	}
	return room
}
