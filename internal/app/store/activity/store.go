// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Entry categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth activity types
const (
	ActivityLoginSuccess      = "login_success"
	ActivityLoginDeniedDomain = "login_denied_domain"
	ActivityLogout            = "logout"
)

// Admin access-gate activity types. These three are the contract the
// gate handlers emit; one record per submission, no more, no less.
const (
	ActivityAdminIdentityDenied = "admin_identity_denied"
	ActivityAdminAccessSuccess  = "admin_access_success"
	ActivityAdminCodeFailure    = "admin_code_failure"
)

// Admin action activity types
const (
	ActivityTeamCreated        = "team_created"
	ActivityTeamDeleted        = "team_deleted"
	ActivityAccountProvisioned = "account_provisioned"
	ActivityRoleChanged        = "role_changed"
)

// Entry is one append-only activity record. Entries are never updated
// or deleted by application code.
type Entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	Category     string `bson:"category"`
	ActivityType string `bson:"activity_type"`

	// Who: the affected profile when known, plus the raw email so
	// pre-provisioning events (gate denials) are still attributable.
	ProfileID *primitive.ObjectID `bson:"profile_id,omitempty"`
	Email     string              `bson:"email,omitempty"`
	ActorID   *primitive.ObjectID `bson:"actor_id,omitempty"`

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// Filter narrows a Query. Zero values are ignored.
type Filter struct {
	Category     string
	ActivityType string
	Email        string
	ProfileID    *primitive.ObjectID
	StartTime    *time.Time
	EndTime      *time.Time
	Limit        int64
	Offset       int64
}

// Store manages activity log records.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity_logs")}
}

// EnsureIndexes creates the indexes the admin review screens query on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "activity_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log appends one entry.
func (s *Store) Log(ctx context.Context, e Entry) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.ActivityType != "" {
		q["activity_type"] = f.ActivityType
	}
	if f.Email != "" {
		q["email"] = f.Email
	}
	if f.ProfileID != nil {
		q["profile_id"] = f.ProfileID
	}
	if f.StartTime != nil || f.EndTime != nil {
		t := bson.M{}
		if f.StartTime != nil {
			t["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			t["$lte"] = *f.EndTime
		}
		q["timestamp"] = t
	}
	return q
}

// Query retrieves entries matching the filter, most recent first.
func (s *Store) Query(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cursor, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of entries matching the filter.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// RecentGateFailures retrieves gate denials since the given time, for
// the admin security review screen.
func (s *Store) RecentGateFailures(ctx context.Context, since time.Time, limit int64) ([]Entry, error) {
	q := bson.M{
		"category": CategoryAdmin,
		"success":  false,
		"activity_type": bson.M{
			"$in": []string{ActivityAdminIdentityDenied, ActivityAdminCodeFailure},
		},
		"timestamp": bson.M{"$gte": since},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
