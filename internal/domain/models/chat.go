// internal/domain/models/chat.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat session statuses.
const (
	ChatActive = "active"
	ChatClosed = "closed"
)

// ChatSession is one visitor conversation. A visitor has at most one
// active session at a time (enforced by a unique partial index).
type ChatSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VisitorID string             `bson:"visitor_id" json:"visitor_id"`

	VisitorName  string `bson:"visitor_name,omitempty" json:"visitor_name,omitempty"`
	VisitorEmail string `bson:"visitor_email,omitempty" json:"visitor_email,omitempty"`
	VisitorPhone string `bson:"visitor_phone,omitempty" json:"visitor_phone,omitempty"`

	Status        string     `bson:"status" json:"status"`
	LastMessageAt time.Time  `bson:"last_message_at" json:"last_message_at"`
	AdminReadAt   *time.Time `bson:"admin_read_at,omitempty" json:"admin_read_at,omitempty"`
	ClosedAt      *time.Time `bson:"closed_at,omitempty" json:"closed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the session accepts visitor messages.
func (s ChatSession) IsActive() bool {
	return s.Status == ChatActive
}

// ChatMessage is an immutable message in a session. CreatedAt is the
// server-assigned send time.
type ChatMessage struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID   primitive.ObjectID `bson:"session_id" json:"session_id"`
	Message     string             `bson:"message" json:"message"`
	SenderName  string             `bson:"sender_name" json:"sender_name"`
	IsFromAdmin bool               `bson:"is_from_admin" json:"is_from_admin"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
