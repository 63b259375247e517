// internal/app/store/gallery/gallerystore.go
package gallerystore

import (
	"context"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("gallery")}
}

func (s *Store) Create(ctx context.Context, g models.GalleryImage) (models.GalleryImage, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.GalleryImage{}, err
	}
	return g, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GalleryImage, error) {
	return docstore.Get[models.GalleryImage](ctx, s.c, id)
}

// List returns images in display order. An empty category lists everything.
func (s *Store) List(ctx context.Context, category string) ([]models.GalleryImage, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "created_at", Value: -1}})
	return docstore.Find[models.GalleryImage](ctx, s.c, filter, opts)
}

// Categories returns the distinct non-empty categories in use.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	vals, err := s.c.Distinct(ctx, "category", bson.M{"category": bson.M{"$nin": bson.A{"", nil}}})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// UpdateMeta changes the descriptive fields; the image files are immutable.
func (s *Store) UpdateMeta(ctx context.Context, id primitive.ObjectID, g models.GalleryImage) (models.GalleryImage, error) {
	return docstore.SetByID[models.GalleryImage](ctx, s.c, id, bson.M{
		"title":       g.Title,
		"description": g.Description,
		"category":    g.Category,
		"sort_order":  g.SortOrder,
		"updated_at":  time.Now().UTC(),
	})
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return docstore.DeleteByID(ctx, s.c, id)
}
