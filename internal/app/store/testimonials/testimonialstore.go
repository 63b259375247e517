// internal/app/store/testimonials/testimonialstore.go
package testimonialstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidRating is returned when a rating is outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("testimonials")}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *Store) Create(ctx context.Context, t models.Testimonial) (models.Testimonial, error) {
	if t.Rating < 1 || t.Rating > 5 {
		return models.Testimonial{}, ErrInvalidRating
	}
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Testimonial{}, err
	}
	return t, nil
}

// Submit stores a public submission. It is never approved on arrival.
func (s *Store) Submit(ctx context.Context, t models.Testimonial) (models.Testimonial, error) {
	t.IsApproved = false
	return s.Create(ctx, t)
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Testimonial, error) {
	return docstore.Get[models.Testimonial](ctx, s.c, id)
}

// List returns testimonials for the admin, optionally only pending ones.
func (s *Store) List(ctx context.Context, pendingOnly bool) ([]models.Testimonial, error) {
	filter := bson.M{}
	if pendingOnly {
		filter["is_approved"] = false
	}
	return docstore.Find[models.Testimonial](ctx, s.c, filter, options.Find().SetSort(newestFirst))
}

func (s *Store) ListApproved(ctx context.Context) ([]models.Testimonial, error) {
	return docstore.Find[models.Testimonial](ctx, s.c, bson.M{"is_approved": true}, options.Find().SetSort(newestFirst))
}

// SetApproved approves or withdraws a testimonial.
func (s *Store) SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (models.Testimonial, error) {
	return docstore.SetByID[models.Testimonial](ctx, s.c, id, bson.M{
		"is_approved": approved,
		"updated_at":  time.Now().UTC(),
	})
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, t models.Testimonial) (models.Testimonial, error) {
	if t.Rating < 1 || t.Rating > 5 {
		return models.Testimonial{}, ErrInvalidRating
	}
	return docstore.SetByID[models.Testimonial](ctx, s.c, id, bson.M{
		"name":        t.Name,
		"destination": t.Destination,
		"university":  t.University,
		"content":     t.Content,
		"rating":      t.Rating,
		"is_approved": t.IsApproved,
		"updated_at":  time.Now().UTC(),
	})
}

// SetPhoto returns the document as it was before the change.
func (s *Store) SetPhoto(ctx context.Context, id primitive.ObjectID, key, url string) (models.Testimonial, error) {
	var prev models.Testimonial
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"photo_key":  key,
		"photo_url":  url,
		"updated_at": time.Now().UTC(),
	}}).Decode(&prev)
	return prev, docstore.MapErr(err)
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return docstore.DeleteByID(ctx, s.c, id)
}
