// internal/domain/models/consultation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Consultation statuses. Admins move bookings between these freely;
// there are no automatic transitions.
const (
	ConsultationPending   = "pending"
	ConsultationContacted = "contacted"
	ConsultationCompleted = "completed"
)

// ConsultationStatuses lists valid consultation statuses.
var ConsultationStatuses = []string{ConsultationPending, ConsultationContacted, ConsultationCompleted}

// IsValidConsultationStatus reports whether s is a known status.
func IsValidConsultationStatus(s string) bool {
	for _, v := range ConsultationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Consultation is a booking request submitted from the public site.
type Consultation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone" json:"phone"`
	Destination string             `bson:"destination" json:"destination"`
	Education   string             `bson:"education" json:"education"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"`
	Status      string             `bson:"status" json:"status"`
	AdminNotes  string             `bson:"admin_notes,omitempty" json:"admin_notes,omitempty"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submitted_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
