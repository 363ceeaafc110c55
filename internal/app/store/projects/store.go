// internal/app/store/projects/store.go
package projectstore

import (
	"context"
	"errors"
	"time"

	"github.com/ecellvishnu/espace/internal/app/system/normalize"
	"github.com/ecellvishnu/espace/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errBadStatus = errors.New(`status must be "on_track"|"delayed"|"at_risk"`)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

// EnsureIndexes creates the team lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_project_team"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a project by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByTeam loads a team's project. Returns mongo.ErrNoDocuments when
// the team has none yet.
func (s *Store) GetByTeam(ctx context.Context, teamID primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"team_id": teamID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new project for a team.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	p.ID = primitive.NewObjectID()
	p.Title = normalize.Name(p.Title)
	if p.Status == "" {
		p.Status = models.ProjectOnTrack
	}
	switch p.Status {
	case models.ProjectOnTrack, models.ProjectDelayed, models.ProjectAtRisk:
	default:
		return models.Project{}, errBadStatus
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// UpdateStatus changes a project's tracked status.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	switch status {
	case models.ProjectOnTrack, models.ProjectDelayed, models.ProjectAtRisk:
	default:
		return errBadStatus
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}})
	return err
}

// UpdateScore sets a project's review score.
func (s *Store) UpdateScore(ctx context.Context, id primitive.ObjectID, score int) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"score":      score,
		"updated_at": time.Now(),
	}})
	return err
}

// UpdateProgress stores the recomputed milestone completion percentage.
func (s *Store) UpdateProgress(ctx context.Context, id primitive.ObjectID, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"progress":   progress,
		"updated_at": time.Now(),
	}})
	return err
}

// List returns all projects, most recently updated first, for the
// admin review screens.
func (s *Store) List(ctx context.Context) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Delete removes a project.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByTeam removes a team's project, used when the team is deleted.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
