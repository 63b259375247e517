// internal/domain/models/job.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job is an open position advertised on the careers page.
type Job struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Department     string             `bson:"department,omitempty" json:"department,omitempty"`
	Location       string             `bson:"location,omitempty" json:"location,omitempty"`
	EmploymentType string             `bson:"employment_type,omitempty" json:"employment_type,omitempty"` // full-time, part-time, internship
	Description    string             `bson:"description" json:"description"`                             // sanitized HTML
	Requirements   []string           `bson:"requirements,omitempty" json:"requirements,omitempty"`
	SalaryRange    string             `bson:"salary_range,omitempty" json:"salary_range,omitempty"`
	Deadline       *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	IsActive       bool               `bson:"is_active" json:"is_active"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsOpen reports whether the job accepts applications at now.
func (j Job) IsOpen(now time.Time) bool {
	return j.IsActive && (j.Deadline == nil || j.Deadline.After(now))
}

// Job application statuses.
const (
	ApplicationReceived    = "received"
	ApplicationReviewing   = "reviewing"
	ApplicationShortlisted = "shortlisted"
	ApplicationRejected    = "rejected"
	ApplicationHired       = "hired"
)

// ApplicationStatuses lists valid application statuses.
var ApplicationStatuses = []string{
	ApplicationReceived,
	ApplicationReviewing,
	ApplicationShortlisted,
	ApplicationRejected,
	ApplicationHired,
}

// IsValidApplicationStatus reports whether s is a known application status.
func IsValidApplicationStatus(s string) bool {
	for _, v := range ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// JobApplication is a candidate's submission for a Job, with an uploaded CV.
type JobApplication struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JobID       primitive.ObjectID `bson:"job_id" json:"job_id"`
	JobTitle    string             `bson:"job_title" json:"job_title"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CoverLetter string             `bson:"cover_letter,omitempty" json:"cover_letter,omitempty"`
	CVKey       string             `bson:"cv_key" json:"cv_key"`
	CVName      string             `bson:"cv_name,omitempty" json:"cv_name,omitempty"`
	CVURL       string             `bson:"cv_url" json:"cv_url"`
	Status      string             `bson:"status" json:"status"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submitted_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
