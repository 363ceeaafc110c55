// internal/app/store/rooms/store.go
package roomstore

import (
	"context"
	"time"

	"github.com/ecellvishnu/espace/internal/app/system/normalize"
	"github.com/ecellvishnu/espace/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("rooms")}
}

// EnsureIndexes creates the room code and team lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_room_code"),
		},
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: options.Index().SetName("idx_room_team"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new meeting room with a fresh unguessable code.
func (s *Store) Create(ctx context.Context, teamID primitive.ObjectID, name string) (models.Room, error) {
	room := models.Room{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		Name:      normalize.Name(name),
		Code:      uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, room); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// GetByCode loads a room by its code.
func (s *Store) GetByCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	if err := s.c.FindOne(ctx, bson.M{"code": code}).Decode(&room); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListByTeam returns a team's rooms, newest first.
func (s *Store) ListByTeam(ctx context.Context, teamID primitive.ObjectID) ([]models.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rooms []models.Room
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Delete removes a room.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByTeam removes all of a team's rooms.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
