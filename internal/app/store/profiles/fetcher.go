// internal/app/store/profiles/fetcher.go
package profilestore

import (
	"context"

	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/ecellvishnu/espace/internal/app/system/normalize"
	"github.com/ecellvishnu/espace/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.ProfileFetcher, loading fresh profile data on
// every request so role and team changes take effect immediately.
type Fetcher struct {
	profiles *mongo.Collection
}

// NewFetcher creates a ProfileFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{profiles: db.Collection("profiles")}
}

// FetchProfile retrieves the profile linked to a provider subject and
// returns nil if it is missing or the lookup fails. The session stays
// valid either way; a nil profile just fails role checks downstream.
func (f *Fetcher) FetchProfile(ctx context.Context, principalID string) *auth.SessionProfile {
	if principalID == "" {
		return nil
	}

	var p models.Profile
	proj := options.FindOne().SetProjection(bson.M{
		"_id":        1,
		"full_name":  1,
		"email":      1,
		"role":       1,
		"team_id":    1,
		"avatar_url": 1,
	})
	if err := f.profiles.FindOne(ctx, bson.M{"principal_id": principalID}, proj).Decode(&p); err != nil {
		return nil
	}

	sp := &auth.SessionProfile{
		ID:        p.ID.Hex(),
		Name:      p.FullName,
		Email:     p.Email,
		Role:      normalize.Role(p.Role),
		AvatarURL: p.AvatarURL,
	}
	if p.TeamID != nil {
		sp.TeamID = p.TeamID.Hex()
	}
	return sp
}
