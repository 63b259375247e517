// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnnouncementCategory classifies an announcement for display.
type AnnouncementCategory string

const (
	CategoryGeneral     AnnouncementCategory = "general"
	CategoryUrgent      AnnouncementCategory = "urgent"
	CategoryEvent       AnnouncementCategory = "event"
	CategoryScholarship AnnouncementCategory = "scholarship"
)

// AnnouncementCategories lists the valid categories in display order.
var AnnouncementCategories = []AnnouncementCategory{
	CategoryGeneral,
	CategoryUrgent,
	CategoryEvent,
	CategoryScholarship,
}

// IsValidAnnouncementCategory reports whether c is a known category.
func IsValidAnnouncementCategory(c AnnouncementCategory) bool {
	for _, v := range AnnouncementCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Announcement is a news item shown on the public site.
type Announcement struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title    string               `bson:"title" json:"title"`
	Content  string               `bson:"content" json:"content"` // sanitized HTML
	Category AnnouncementCategory `bson:"category" json:"category"`
	IsActive bool                 `bson:"is_active" json:"is_active"`

	PublishedDate time.Time  `bson:"published_date" json:"published_date"`
	ExpiryDate    *time.Time `bson:"expiry_date,omitempty" json:"expiry_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsExpired reports whether the expiry date has passed at now.
func (a Announcement) IsExpired(now time.Time) bool {
	return a.ExpiryDate != nil && !a.ExpiryDate.After(now)
}

// IsLive reports whether the announcement should be shown publicly at now.
// The announcement store applies the same rule as a query filter.
func (a Announcement) IsLive(now time.Time) bool {
	return a.IsActive && !a.IsExpired(now)
}
