// internal/domain/models/sitesettings.go
package models

import (
	"time"
)

// WebsiteSettingsID is the fixed _id of the single settings document.
const WebsiteSettingsID = "site"

// WebsiteSettings holds global, admin-editable configuration for the public site.
// Exactly one document exists (_id "site"); it is created on first read.
type WebsiteSettings struct {
	ID string `bson:"_id" json:"-"`

	// Display settings
	SiteName string `bson:"site_name" json:"site_name"`
	Tagline  string `bson:"tagline,omitempty" json:"tagline,omitempty"`

	// Hero
	HeroTitle    string `bson:"hero_title,omitempty" json:"hero_title,omitempty"`
	HeroSubtitle string `bson:"hero_subtitle,omitempty" json:"hero_subtitle,omitempty"`

	// Logo (file upload)
	LogoKey string `bson:"logo_key,omitempty" json:"logo_key,omitempty"`
	LogoURL string `bson:"logo_url,omitempty" json:"logo_url,omitempty"`

	// Contact
	ContactEmail string `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	ContactPhone string `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	WhatsApp     string `bson:"whatsapp,omitempty" json:"whatsapp,omitempty"`
	Address      string `bson:"address,omitempty" json:"address,omitempty"`

	// Social links by platform name.
	SocialLinks map[string]string `bson:"social_links,omitempty" json:"social_links,omitempty"`

	// Study destinations shown on the destinations page.
	Destinations []string `bson:"destinations,omitempty" json:"destinations,omitempty"`

	// Footer
	FooterHTML string `bson:"footer_html,omitempty" json:"footer_html,omitempty"`

	// Chat widget
	ChatEnabled  bool   `bson:"chat_enabled" json:"chat_enabled"`
	ChatGreeting string `bson:"chat_greeting,omitempty" json:"chat_greeting,omitempty"`

	// Audit fields
	UpdatedAt     *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByName string     `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}

// HasLogo returns true if a logo has been uploaded.
func (s *WebsiteSettings) HasLogo() bool {
	return s.LogoKey != ""
}

// Defaults used when the settings document is first created.
const (
	DefaultSiteName     = "Consultancy"
	DefaultChatGreeting = "Hi! How can we help you with your study abroad plans?"
)
