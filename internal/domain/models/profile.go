// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile extends an identity-provider principal with application-level
// role and team metadata. A profile is created on the principal's first
// institutional sign-in and keyed by the provider subject.
type Profile struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PrincipalID string              `bson:"principal_id" json:"principal_id"` // identity-provider subject
	FullName    string              `bson:"full_name" json:"full_name"`
	Email       string              `bson:"email" json:"email"`
	EmailCI     string              `bson:"email_ci" json:"email_ci"` // lowercase, trimmed
	Role        string              `bson:"role" json:"role"`         // admin | leader | member
	TeamID      *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`
	AvatarURL   string              `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
