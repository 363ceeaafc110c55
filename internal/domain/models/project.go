// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project status values shown on the dashboards.
const (
	ProjectOnTrack = "on_track"
	ProjectDelayed = "delayed"
	ProjectAtRisk  = "at_risk"
)

// Project is a team's tracked innovation project.
type Project struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID  primitive.ObjectID `bson:"team_id" json:"team_id"`
	Title   string             `bson:"title" json:"title"`
	Summary string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Status  string             `bson:"status" json:"status"`
	Score   int                `bson:"score" json:"score"`
	// Progress is the percentage of completed milestones, recomputed on
	// every milestone mutation.
	Progress int `bson:"progress" json:"progress"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Milestone is a dated checkpoint within a project.
type Milestone struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID primitive.ObjectID `bson:"project_id" json:"project_id"`
	Title     string             `bson:"title" json:"title"`
	DueDate   time.Time          `bson:"due_date" json:"due_date"`
	Done      bool               `bson:"done" json:"done"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
