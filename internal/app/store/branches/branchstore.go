// internal/app/store/branches/branchstore.go
package branchstore

import (
	"context"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("branches")}
}

var displayOrder = bson.D{
	{Key: "is_head_office", Value: -1},
	{Key: "sort_order", Value: 1},
	{Key: "name_ci", Value: 1},
}

func (s *Store) Create(ctx context.Context, b models.Branch) (models.Branch, error) {
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.NameCI = text.Fold(b.Name)
	b.CreatedAt = now
	b.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		return models.Branch{}, err
	}
	return b, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Branch, error) {
	return docstore.Get[models.Branch](ctx, s.c, id)
}

// List returns all branches, head office first, then by sort order.
func (s *Store) List(ctx context.Context) ([]models.Branch, error) {
	return docstore.Find[models.Branch](ctx, s.c, bson.M{}, options.Find().SetSort(displayOrder))
}

// ListActive returns branches shown on the public site.
func (s *Store) ListActive(ctx context.Context) ([]models.Branch, error) {
	return docstore.Find[models.Branch](ctx, s.c, bson.M{"is_active": true}, options.Find().SetSort(displayOrder))
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, b models.Branch) (models.Branch, error) {
	return docstore.SetByID[models.Branch](ctx, s.c, id, bson.M{
		"name":           b.Name,
		"name_ci":        text.Fold(b.Name),
		"address":        b.Address,
		"city":           b.City,
		"country":        b.Country,
		"phone":          b.Phone,
		"email":          b.Email,
		"map_url":        b.MapURL,
		"is_head_office": b.IsHeadOffice,
		"sort_order":     b.SortOrder,
		"is_active":      b.IsActive,
		"updated_at":     time.Now().UTC(),
	})
}

func (s *Store) Toggle(ctx context.Context, id primitive.ObjectID) (models.Branch, error) {
	return docstore.Toggle[models.Branch](ctx, s.c, id, "is_active", time.Now().UTC())
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return docstore.DeleteByID(ctx, s.c, id)
}
