// internal/app/store/profiles/store.go
package profilestore

import (
	"context"
	"errors"
	"time"

	"github.com/ecellvishnu/espace/internal/app/system/normalize"
	"github.com/ecellvishnu/espace/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when a profile with this email already exists.
	ErrDuplicateEmail = errors.New("a profile with this email already exists")
	// ErrDuplicatePrincipal is returned when the provider subject is already linked.
	ErrDuplicatePrincipal = errors.New("this account is already linked to a profile")
	errBadRole            = errors.New(`role must be "admin"|"leader"|"member"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// EnsureIndexes creates the unique identity indexes. principal_id is
// sparse: admin-provisioned profiles exist before their first sign-in
// links a provider subject.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "principal_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("idx_profile_principal"),
		},
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_profile_email_ci"),
		},
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: options.Index().SetName("idx_profile_team"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a profile by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByPrincipalID loads the profile linked to a provider subject.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByPrincipalID(ctx context.Context, principalID string) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"principal_id": principalID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByEmail looks up a profile by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"email_ci": normalize.Email(email)}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new profile after normalizing and validating fields.
// The raw email keeps its display case; email_ci carries the folded form
// the unique index and lookups use.
func (s *Store) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	p.ID = primitive.NewObjectID()
	p.FullName = normalize.Name(p.FullName)
	p.EmailCI = normalize.Email(p.Email)
	p.Role = normalize.Role(p.Role)
	if p.Role == "" {
		p.Role = "member"
	}

	switch p.Role {
	case "admin", "leader", "member":
	default:
		return models.Profile{}, errBadRole
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Profile{}, ErrDuplicateEmail
		}
		return models.Profile{}, err
	}
	return p, nil
}

// LinkPrincipal attaches a provider subject to a pre-provisioned
// profile on its first sign-in.
func (s *Store) LinkPrincipal(ctx context.Context, id primitive.ObjectID, principalID string, fullName, avatarURL string) error {
	set := bson.M{
		"principal_id": principalID,
		"updated_at":   time.Now(),
	}
	if fullName != "" {
		set["full_name"] = normalize.Name(fullName)
	}
	if avatarURL != "" {
		set["avatar_url"] = avatarURL
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicatePrincipal
	}
	return err
}

// UpdateRole changes a profile's role.
func (s *Store) UpdateRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	switch role {
	case "admin", "leader", "member":
	default:
		return errBadRole
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now(),
	}})
	return err
}

// AssignTeam places a profile on a team.
func (s *Store) AssignTeam(ctx context.Context, id, teamID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"team_id":    teamID,
		"updated_at": time.Now(),
	}})
	return err
}

// ClearTeam removes a profile's team assignment.
func (s *Store) ClearTeam(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"team_id": ""},
		"$set":   bson.M{"updated_at": time.Now()},
	})
	return err
}

// ClearTeamForAll removes a team assignment from every profile on the
// team, used when the team is deleted.
func (s *Store) ClearTeamForAll(ctx context.Context, teamID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx, bson.M{"team_id": teamID}, bson.M{
		"$unset": bson.M{"team_id": ""},
		"$set":   bson.M{"updated_at": time.Now()},
	})
	return err
}

// ListByTeam returns the profiles on a team, sorted by name.
func (s *Store) ListByTeam(ctx context.Context, teamID primitive.ObjectID) ([]models.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var profiles []models.Profile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// List returns all profiles sorted by name, for the admin accounts view.
func (s *Store) List(ctx context.Context) ([]models.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var profiles []models.Profile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Search returns profiles whose folded name or email contains the
// folded query, for the admin accounts filter box.
func (s *Store) Search(ctx context.Context, query string) ([]models.Profile, error) {
	folded := text.Fold(query)
	if folded == "" {
		return s.List(ctx)
	}
	filter := bson.M{"$or": []bson.M{
		{"email_ci": bson.M{"$regex": folded}},
		{"full_name": bson.M{"$regex": query, "$options": "i"}},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var profiles []models.Profile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Count returns the total number of profiles.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// Delete removes a profile.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
