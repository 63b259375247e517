// internal/app/store/announcements/announcementstore.go
package announcementstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/app/system/htmlsanitize"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidCategory is returned when an announcement names an unknown category.
var ErrInvalidCategory = errors.New("invalid announcement category")

// Store provides access to the announcements collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements")}
}

// Input carries the editable fields of an announcement.
type Input struct {
	Title         string
	Content       string
	Category      models.AnnouncementCategory
	IsActive      bool
	PublishedDate time.Time
	ExpiryDate    *time.Time
}

func (in *Input) normalize() error {
	if in.Category == "" {
		in.Category = models.CategoryGeneral
	}
	if !models.IsValidAnnouncementCategory(in.Category) {
		return ErrInvalidCategory
	}
	in.Content = htmlsanitize.Sanitize(in.Content)
	return nil
}

func (s *Store) Create(ctx context.Context, in Input) (models.Announcement, error) {
	if err := in.normalize(); err != nil {
		return models.Announcement{}, err
	}
	now := time.Now().UTC()
	if in.PublishedDate.IsZero() {
		in.PublishedDate = now
	}
	a := models.Announcement{
		ID:            primitive.NewObjectID(),
		Title:         in.Title,
		Content:       in.Content,
		Category:      in.Category,
		IsActive:      in.IsActive,
		PublishedDate: in.PublishedDate.UTC(),
		ExpiryDate:    utcPtr(in.ExpiryDate),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	return docstore.Get[models.Announcement](ctx, s.c, id)
}

// List returns every announcement, newest published first.
func (s *Store) List(ctx context.Context) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "published_date", Value: -1}, {Key: "_id", Value: -1}})
	return docstore.Find[models.Announcement](ctx, s.c, bson.M{}, opts)
}

// ListActive returns announcements that are live at now: active and either
// without an expiry date or expiring strictly after now.
func (s *Store) ListActive(ctx context.Context, now time.Time) ([]models.Announcement, error) {
	filter := bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"expiry_date": bson.M{"$exists": false}},
			bson.M{"expiry_date": nil},
			bson.M{"expiry_date": bson.M{"$gt": now.UTC()}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "published_date", Value: -1}, {Key: "_id", Value: -1}})
	return docstore.Find[models.Announcement](ctx, s.c, filter, opts)
}

// Update replaces the editable fields. Clearing ExpiryDate removes the field.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in Input) (models.Announcement, error) {
	if err := in.normalize(); err != nil {
		return models.Announcement{}, err
	}
	set := bson.M{
		"title":      in.Title,
		"content":    in.Content,
		"category":   in.Category,
		"is_active":  in.IsActive,
		"updated_at": time.Now().UTC(),
	}
	if !in.PublishedDate.IsZero() {
		set["published_date"] = in.PublishedDate.UTC()
	}
	update := bson.M{"$set": set}
	if in.ExpiryDate != nil {
		set["expiry_date"] = in.ExpiryDate.UTC()
	} else {
		update["$unset"] = bson.M{"expiry_date": ""}
	}
	return docstore.UpdateByID[models.Announcement](ctx, s.c, id, update)
}

// Toggle flips is_active.
func (s *Store) Toggle(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	return docstore.Toggle[models.Announcement](ctx, s.c, id, "is_active", time.Now().UTC())
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return docstore.DeleteByID(ctx, s.c, id)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
