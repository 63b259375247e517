// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/app/system/htmlsanitize"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the site_settings collection.
// There is exactly one document, keyed by models.WebsiteSettingsID.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("site_settings")}
}

var byID = bson.M{"_id": models.WebsiteSettingsID}

func defaults() bson.M {
	return bson.M{
		"site_name":     models.DefaultSiteName,
		"chat_enabled":  true,
		"chat_greeting": models.DefaultChatGreeting,
	}
}

// Get returns the settings document, creating it with defaults on first
// use. Concurrent first reads converge on the same document because the
// upsert targets a fixed _id.
func (s *Store) Get(ctx context.Context) (models.WebsiteSettings, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out models.WebsiteSettings
	err := s.c.FindOneAndUpdate(ctx, byID, bson.M{"$setOnInsert": defaults()}, opts).Decode(&out)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// lost the insert race; the winner's document is there now
		err = s.c.FindOne(ctx, byID).Decode(&out)
	}
	return out, docstore.MapErr(err)
}

// Patch lists the fields to change. Nil fields are left alone.
type Patch struct {
	SiteName     *string
	Tagline      *string
	HeroTitle    *string
	HeroSubtitle *string
	ContactEmail *string
	ContactPhone *string
	WhatsApp     *string
	Address      *string
	SocialLinks  map[string]string
	Destinations []string
	FooterHTML   *string
	ChatEnabled  *bool
	ChatGreeting *string
}

func (p Patch) set() bson.M {
	set := bson.M{}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	str("site_name", p.SiteName)
	str("tagline", p.Tagline)
	str("hero_title", p.HeroTitle)
	str("hero_subtitle", p.HeroSubtitle)
	str("contact_email", p.ContactEmail)
	str("contact_phone", p.ContactPhone)
	str("whatsapp", p.WhatsApp)
	str("address", p.Address)
	str("chat_greeting", p.ChatGreeting)
	if p.FooterHTML != nil {
		set["footer_html"] = htmlsanitize.Sanitize(*p.FooterHTML)
	}
	if p.SocialLinks != nil {
		set["social_links"] = p.SocialLinks
	}
	if p.Destinations != nil {
		set["destinations"] = p.Destinations
	}
	if p.ChatEnabled != nil {
		set["chat_enabled"] = *p.ChatEnabled
	}
	return set
}

// Update applies p and returns the resulting settings.
func (s *Store) Update(ctx context.Context, p Patch, updatedBy string) (models.WebsiteSettings, error) {
	return s.apply(ctx, p.set(), updatedBy)
}

// SetLogo records a new logo and returns the settings as they were before,
// so the caller can delete the previous file.
func (s *Store) SetLogo(ctx context.Context, key, url, updatedBy string) (models.WebsiteSettings, error) {
	if _, err := s.Get(ctx); err != nil {
		return models.WebsiteSettings{}, err
	}
	now := time.Now().UTC()
	var prev models.WebsiteSettings
	err := s.c.FindOneAndUpdate(ctx, byID, bson.M{"$set": bson.M{
		"logo_key":        key,
		"logo_url":        url,
		"updated_at":      now,
		"updated_by_name": updatedBy,
	}}).Decode(&prev)
	return prev, docstore.MapErr(err)
}

func (s *Store) apply(ctx context.Context, set bson.M, updatedBy string) (models.WebsiteSettings, error) {
	if _, err := s.Get(ctx); err != nil {
		return models.WebsiteSettings{}, err
	}
	set["updated_at"] = time.Now().UTC()
	set["updated_by_name"] = updatedBy
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.WebsiteSettings
	err := s.c.FindOneAndUpdate(ctx, byID, bson.M{"$set": set}, opts).Decode(&out)
	return out, docstore.MapErr(err)
}
