// internal/app/store/team/teamstore.go
package teamstore

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
	return &Store{c: db.Collection("team_members")}
}

var order = bson.D{{Key: "sort_order", Value: 1}, {Key: "name", Value: 1}}

func (s *Store) Create(ctx context.Context, m models.TeamMember) (models.TeamMember, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.TeamMember{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.TeamMember, error) {
	return docstore.Get[models.TeamMember](ctx, s.c, id)
}

func (s *Store) List(ctx context.Context) ([]models.TeamMember, error) {
	return docstore.Find[models.TeamMember](ctx, s.c, bson.M{}, options.Find().SetSort(order))
}

func (s *Store) ListActive(ctx context.Context) ([]models.TeamMember, error) {
	return docstore.Find[models.TeamMember](ctx, s.c, bson.M{"is_active": true}, options.Find().SetSort(order))
}

// Update sets the profile fields. The photo is changed with SetPhoto.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, m models.TeamMember) (models.TeamMember, error) {
	return docstore.SetByID[models.TeamMember](ctx, s.c, id, bson.M{
		"name":       m.Name,
		"position":   m.Position,
		"bio":        m.Bio,
		"email":      m.Email,
		"sort_order": m.SortOrder,
		"is_active":  m.IsActive,
		"updated_at": time.Now().UTC(),
	})
}

// SetPhoto points the member at a new photo and returns the document as it
// was before the change so the caller can remove the old file.
func (s *Store) SetPhoto(ctx context.Context, id primitive.ObjectID, key, url string) (models.TeamMember, error) {
	var prev models.TeamMember
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
