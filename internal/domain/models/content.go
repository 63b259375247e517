// internal/domain/models/content.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Branch is an office location of the consultancy.
type Branch struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"`
	Address      string             `bson:"address" json:"address"`
	City         string             `bson:"city" json:"city"`
	Country      string             `bson:"country,omitempty" json:"country,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	MapURL       string             `bson:"map_url,omitempty" json:"map_url,omitempty"`
	IsHeadOffice bool               `bson:"is_head_office" json:"is_head_office"`
	SortOrder    int                `bson:"sort_order" json:"sort_order"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// CalendarEvent is an entry on the public calendar (seminars, fairs, intakes).
type CalendarEvent struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Location        string             `bson:"location,omitempty" json:"location,omitempty"`
	EventType       string             `bson:"event_type,omitempty" json:"event_type,omitempty"`
	StartAt         time.Time          `bson:"start_at" json:"start_at"`
	EndAt           *time.Time         `bson:"end_at,omitempty" json:"end_at,omitempty"`
	RegistrationURL string             `bson:"registration_url,omitempty" json:"registration_url,omitempty"`
	IsActive        bool               `bson:"is_active" json:"is_active"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsUpcoming reports whether the event has not finished at now.
func (e CalendarEvent) IsUpcoming(now time.Time) bool {
	if e.EndAt != nil {
		return !e.EndAt.Before(now)
	}
	return !e.StartAt.Before(now)
}

// GalleryImage is a photo shown in the public gallery.
type GalleryImage struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Category     string             `bson:"category,omitempty" json:"category,omitempty"`
	ImageKey     string             `bson:"image_key" json:"image_key"`
	ImageURL     string             `bson:"image_url" json:"image_url"`
	ThumbnailKey string             `bson:"thumbnail_key,omitempty" json:"thumbnail_key,omitempty"`
	ThumbnailURL string             `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
	SortOrder    int                `bson:"sort_order" json:"sort_order"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Popup is a promotional modal shown on the public site.
type Popup struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title      string             `bson:"title" json:"title"`
	Content    string             `bson:"content,omitempty" json:"content,omitempty"`
	ImageKey   string             `bson:"image_key,omitempty" json:"image_key,omitempty"`
	ImageURL   string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	LinkURL    string             `bson:"link_url,omitempty" json:"link_url,omitempty"`
	ButtonText string             `bson:"button_text,omitempty" json:"button_text,omitempty"`
	IsActive   bool               `bson:"is_active" json:"is_active"`
	StartDate  *time.Time         `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate    *time.Time         `bson:"end_date,omitempty" json:"end_date,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsShowing reports whether the popup is active and inside its date window at now.
func (p Popup) IsShowing(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartDate != nil && p.StartDate.After(now) {
		return false
	}
	if p.EndDate != nil && !p.EndDate.After(now) {
		return false
	}
	return true
}

// Social platforms accepted for social posts.
const (
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformYouTube   = "youtube"
	PlatformLinkedIn  = "linkedin"
)

// SocialPlatforms lists the accepted platforms.
var SocialPlatforms = []string{PlatformFacebook, PlatformInstagram, PlatformTikTok, PlatformYouTube, PlatformLinkedIn}

// SocialPost is an embedded social media post.
type SocialPost struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Platform     string             `bson:"platform" json:"platform"`
	PostURL      string             `bson:"post_url" json:"post_url"`
	Caption      string             `bson:"caption,omitempty" json:"caption,omitempty"`
	ThumbnailURL string             `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	SortOrder    int                `bson:"sort_order" json:"sort_order"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// TeamMember is a staff profile on the about page.
type TeamMember struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Position  string             `bson:"position" json:"position"`
	Bio       string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	PhotoKey  string             `bson:"photo_key,omitempty" json:"photo_key,omitempty"`
	PhotoURL  string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	SortOrder int                `bson:"sort_order" json:"sort_order"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Testimonial is a student review. Public submissions start unapproved.
type Testimonial struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Destination string             `bson:"destination,omitempty" json:"destination,omitempty"`
	University  string             `bson:"university,omitempty" json:"university,omitempty"`
	Content     string             `bson:"content" json:"content"`
	Rating      int                `bson:"rating" json:"rating"`
	PhotoKey    string             `bson:"photo_key,omitempty" json:"photo_key,omitempty"`
	PhotoURL    string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	IsApproved  bool               `bson:"is_approved" json:"is_approved"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
