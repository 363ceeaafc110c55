// internal/app/store/teammembers/store.go
package teammemberstore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("team_members")}
}

// EnsureIndexes creates the membership indexes. The compound unique
// index prevents double-adding a profile to the same team.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "profile_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_member_team_profile"),
		},
		{
			Keys:    bson.D{{Key: "profile_id", Value: 1}},
			Options: options.Index().SetName("idx_member_profile"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Add records a profile joining a team. Adding an existing membership
// is a no-op.
func (s *Store) Add(ctx context.Context, teamID, profileID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"team_id": teamID, "profile_id": profileID},
		bson.M{"$setOnInsert": models.TeamMember{
			ID:        primitive.NewObjectID(),
			TeamID:    teamID,
			ProfileID: profileID,
			JoinedAt:  time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Remove deletes a membership.
func (s *Store) Remove(ctx context.Context, teamID, profileID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"team_id": teamID, "profile_id": profileID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// RemoveAllForTeam deletes every membership of a team, used when the
// team is deleted.
func (s *Store) RemoveAllForTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByTeam returns the memberships of a team, oldest first.
func (s *Store) ListByTeam(ctx context.Context, teamID primitive.ObjectID) ([]models.TeamMember, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.TeamMember
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CountByTeam returns the member count of a team.
func (s *Store) CountByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"team_id": teamID})
}
