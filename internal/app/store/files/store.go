// internal/app/store/files/store.go
package filestore

import (
	"context"

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
	return &Store{c: db.Collection("files")}
}

// EnsureIndexes creates the team listing and key lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_file_team_created"),
		},
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_file_key"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a file record by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.FileObject, error) {
	var f models.FileObject
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByKey loads a file record by its opaque storage key.
func (s *Store) GetByKey(ctx context.Context, key string) (*models.FileObject, error) {
	var f models.FileObject
	if err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new file record. The caller has already written the
// bytes under Key.
func (s *Store) Create(ctx context.Context, f models.FileObject) (models.FileObject, error) {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.FileObject{}, err
	}
	return f, nil
}

// ListByTeam returns a team's files, newest first.
func (s *Store) ListByTeam(ctx context.Context, teamID primitive.ObjectID) ([]models.FileObject, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var files []models.FileObject
	if err := cur.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// Delete removes a file record. The caller removes the bytes.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByTeam removes all of a team's file records. The caller removes
// the bytes, using ListByTeam beforehand to learn the keys.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
