// internal/app/store/popups/popupstore.go
package popupstore

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

// ErrBadWindow is returned when a popup's end date precedes its start date.
var ErrBadWindow = errors.New("popup end date is before start date")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("popups")}
}

func prepare(p *models.Popup) error {
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return ErrBadWindow
	}
	p.Content = htmlsanitize.Sanitize(p.Content)
	return nil
}

func (s *Store) Create(ctx context.Context, p models.Popup) (models.Popup, error) {
	if err := prepare(&p); err != nil {
		return models.Popup{}, err
	}
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Popup{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Popup, error) {
	return docstore.Get[models.Popup](ctx, s.c, id)
}

func (s *Store) List(ctx context.Context) ([]models.Popup, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return docstore.Find[models.Popup](ctx, s.c, bson.M{}, opts)
}

// GetActive returns the most recently updated popup showing at now, or nil
// when there is none.
func (s *Store) GetActive(ctx context.Context, now time.Time) (*models.Popup, error) {
	now = now.UTC()
	filter := bson.M{
		"is_active": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"start_date": bson.M{"$exists": false}},
				bson.M{"start_date": nil},
				bson.M{"start_date": bson.M{"$lte": now}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"end_date": bson.M{"$exists": false}},
				bson.M{"end_date": nil},
				bson.M{"end_date": bson.M{"$gt": now}},
			}},
		},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	p, err := docstore.FindOne[models.Popup](ctx, s.c, filter, opts)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update sets the text fields and date window. The image is changed with SetImage.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p models.Popup) (models.Popup, error) {
	if err := prepare(&p); err != nil {
		return models.Popup{}, err
	}
	set := bson.M{
		"title":       p.Title,
		"content":     p.Content,
		"link_url":    p.LinkURL,
		"button_text": p.ButtonText,
		"is_active":   p.IsActive,
		"updated_at":  time.Now().UTC(),
	}
	unset := bson.M{}
	if p.StartDate != nil {
		set["start_date"] = p.StartDate.UTC()
	} else {
		unset["start_date"] = ""
	}
	if p.EndDate != nil {
		set["end_date"] = p.EndDate.UTC()
	} else {
		unset["end_date"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return docstore.UpdateByID[models.Popup](ctx, s.c, id, update)
}

// SetImage returns the document as it was before the change.
func (s *Store) SetImage(ctx context.Context, id primitive.ObjectID, key, url string) (models.Popup, error) {
	var prev models.Popup
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"image_key":  key,
		"image_url":  url,
		"updated_at": time.Now().UTC(),
	}}).Decode(&prev)
	return prev, docstore.MapErr(err)
}

func (s *Store) Toggle(ctx context.Context, id primitive.ObjectID) (models.Popup, error) {
	return docstore.Toggle[models.Popup](ctx, s.c, id, "is_active", time.Now().UTC())
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return docstore.DeleteByID(ctx, s.c, id)
}
