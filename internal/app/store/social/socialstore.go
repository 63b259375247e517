// internal/app/store/social/socialstore.go
package socialstore

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrInvalidPlatform = errors.New("invalid social platform")
	ErrInvalidURL      = errors.New("post url must be an absolute http(s) url")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("social_posts")}
}

func check(p models.SocialPost) error {
	ok := false
	for _, v := range models.SocialPlatforms {
		if v == p.Platform {
			ok = true
			break
		}
	}
	if !ok {
		return ErrInvalidPlatform
	}
	u, err := url.Parse(p.PostURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

var order = bson.D{{Key: "sort_order", Value: 1}, {Key: "created_at", Value: -1}}

func (s *Store) Create(ctx context.Context, p models.SocialPost) (models.SocialPost, error) {
	if err := check(p); err != nil {
		return models.SocialPost{}, err
	}
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.SocialPost{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.SocialPost, error) {
	return docstore.Get[models.SocialPost](ctx, s.c, id)
}

func (s *Store) List(ctx context.Context) ([]models.SocialPost, error) {
	return docstore.Find[models.SocialPost](ctx, s.c, bson.M{}, options.Find().SetSort(order))
}

// ListActive returns active posts, optionally restricted to one platform.
func (s *Store) ListActive(ctx context.Context, platform string) ([]models.SocialPost, error) {
	filter := bson.M{"is_active": true}
	if platform != "" {
		filter["platform"] = platform
	}
	return docstore.Find[models.SocialPost](ctx, s.c, filter, options.Find().SetSort(order))
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p models.SocialPost) (models.SocialPost, error) {
	if err := check(p); err != nil {
		return models.SocialPost{}, err
	}
	return docstore.SetByID[models.SocialPost](ctx, s.c, id, bson.M{
		"platform":      p.Platform,
		"post_url":      p.PostURL,
		"caption":       p.Caption,
		"thumbnail_url": p.ThumbnailURL,
		"is_active":     p.IsActive,
		"sort_order":    p.SortOrder,
		"updated_at":    time.Now().UTC(),
	})
}

func (s *Store) Toggle(ctx context.Context, id primitive.ObjectID) (models.SocialPost, error) {
	return docstore.Toggle[models.SocialPost](ctx, s.c, id, "is_active", time.Now().UTC())
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return docstore.DeleteByID(ctx, s.c, id)
}
