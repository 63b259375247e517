// internal/app/store/events/eventstore.go
package eventstore

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

// ErrEndBeforeStart is returned when an event ends before it starts.
var ErrEndBeforeStart = errors.New("event end is before start")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("calendar_events")}
}

func check(e models.CalendarEvent) error {
	if e.EndAt != nil && e.EndAt.Before(e.StartAt) {
		return ErrEndBeforeStart
	}
	return nil
}

func (s *Store) Create(ctx context.Context, e models.CalendarEvent) (models.CalendarEvent, error) {
	if err := check(e); err != nil {
		return models.CalendarEvent{}, err
	}
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.StartAt = e.StartAt.UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.CalendarEvent{}, err
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.CalendarEvent, error) {
	return docstore.Get[models.CalendarEvent](ctx, s.c, id)
}

// List returns every event by start time, latest first.
func (s *Store) List(ctx context.Context) ([]models.CalendarEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_at", Value: -1}})
	return docstore.Find[models.CalendarEvent](ctx, s.c, bson.M{}, opts)
}

// ListUpcoming returns active events that have not finished at now, soonest
// first. An event without an end is upcoming until its start passes.
// limit <= 0 means no limit.
func (s *Store) ListUpcoming(ctx context.Context, now time.Time, limit int64) ([]models.CalendarEvent, error) {
	now = now.UTC()
	filter := bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"start_at": bson.M{"$gte": now}},
			bson.M{"end_at": bson.M{"$gte": now}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return docstore.Find[models.CalendarEvent](ctx, s.c, filter, opts)
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, e models.CalendarEvent) (models.CalendarEvent, error) {
	if err := check(e); err != nil {
		return models.CalendarEvent{}, err
	}
	set := bson.M{
		"title":            e.Title,
		"description":      e.Description,
		"location":         e.Location,
		"event_type":       e.EventType,
		"start_at":         e.StartAt.UTC(),
		"registration_url": e.RegistrationURL,
		"is_active":        e.IsActive,
		"updated_at":       time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if e.EndAt != nil {
		set["end_at"] = e.EndAt.UTC()
	} else {
		update["$unset"] = bson.M{"end_at": ""}
	}
	return docstore.UpdateByID[models.CalendarEvent](ctx, s.c, id, update)
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return docstore.DeleteByID(ctx, s.c, id)
}
