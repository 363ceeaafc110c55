// internal/domain/models/workspace.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileObject is the metadata record for a stored workspace file. The
// bytes live in the blob store at Path; Key is the opaque token used
// in download URLs.
type FileObject struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID      primitive.ObjectID `bson:"team_id" json:"team_id"`
	UploaderID  primitive.ObjectID `bson:"uploader_id" json:"uploader_id"`
	Name        string             `bson:"name" json:"name"`
	Key         string             `bson:"key" json:"key"`   // opaque download token (uuid)
	Path        string             `bson:"path" json:"path"` // blob store path
	Size        int64              `bson:"size" json:"size"`
	ContentType string             `bson:"content_type,omitempty" json:"content_type,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Message is a chat message within a team channel. Body is stored
// already sanitized.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID    primitive.ObjectID `bson:"team_id" json:"team_id"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Body      string             `bson:"body" json:"body"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Room is a team's video meeting room. The call itself runs on an
// external conferencing service; Room only owns the embed code.
type Room struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID    primitive.ObjectID `bson:"team_id" json:"team_id"`
	Name      string             `bson:"name" json:"name"`
	Code      string             `bson:"code" json:"code"` // unique room code (uuid)
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
