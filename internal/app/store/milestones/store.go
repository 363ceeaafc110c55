// internal/app/store/milestones/store.go
package milestonestore

import (
	"context"
	"time"

	"github.com/ecellvishnu/espace/internal/app/system/normalize"
	"github.com/ecellvishnu/espace/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("milestones")}
}

// EnsureIndexes creates the project timeline index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "due_date", Value: 1},
			},
			Options: options.Index().SetName("idx_milestone_project_due"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a milestone by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Milestone, error) {
	var m models.Milestone
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new milestone.
func (s *Store) Create(ctx context.Context, m models.Milestone) (models.Milestone, error) {
	m.ID = primitive.NewObjectID()
	m.Title = normalize.Name(m.Title)

	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Milestone{}, err
	}
	return m, nil
}

// SetDone toggles a milestone's completion flag.
func (s *Store) SetDone(ctx context.Context, id primitive.ObjectID, done bool) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"done":       done,
		"updated_at": time.Now(),
	}})
	return err
}

// ListByProject returns a project's milestones ordered by due date
// ascending, the order the timeline renders them in.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Milestone, error) {
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var milestones []models.Milestone
	if err := cur.All(ctx, &milestones); err != nil {
		return nil, err
	}
	return milestones, nil
}

// Progress returns the percentage of completed milestones for a
// project, 0 when the project has none.
func (s *Store) Progress(ctx context.Context, projectID primitive.ObjectID) (int, error) {
	total, err := s.c.CountDocuments(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	done, err := s.c.CountDocuments(ctx, bson.M{"project_id": projectID, "done": true})
	if err != nil {
		return 0, err
	}
	return int(done * 100 / total), nil
}

// Delete removes a milestone.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByProject removes all of a project's milestones.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
