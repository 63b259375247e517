// internal/app/store/consultations/consultationstore.go
package consultationstore

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

// ErrInvalidStatus is returned for an unknown consultation status.
var ErrInvalidStatus = errors.New("invalid consultation status")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("consultations")}
}

// Create stores a booking from the public form. Status is always pending.
func (s *Store) Create(ctx context.Context, c models.Consultation) (models.Consultation, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Status = models.ConsultationPending
	c.AdminNotes = ""
	c.SubmittedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Consultation{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Consultation, error) {
	return docstore.Get[models.Consultation](ctx, s.c, id)
}

// List returns bookings newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, status string) ([]models.Consultation, error) {
	if status != "" && !models.IsValidConsultationStatus(status) {
		return nil, ErrInvalidStatus
	}
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}, {Key: "_id", Value: -1}})
	return docstore.Find[models.Consultation](ctx, s.c, filter, opts)
}

// UpdateStatus moves a booking to any status. notes replaces the admin notes
// when non-nil.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, notes *string) (models.Consultation, error) {
	if !models.IsValidConsultationStatus(status) {
		return models.Consultation{}, ErrInvalidStatus
	}
	set := bson.M{"status": status, "updated_at": time.Now().UTC()}
	if notes != nil {
		set["admin_notes"] = *notes
	}
	return docstore.SetByID[models.Consultation](ctx, s.c, id, set)
}

// CountsByStatus returns a count for every known status, zero included.
func (s *Store) CountsByStatus(ctx context.Context) (map[string]int64, error) {
	raw, err := docstore.CountBy(ctx, s.c, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(models.ConsultationStatuses))
	for _, st := range models.ConsultationStatuses {
		out[st] = raw[st]
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return docstore.DeleteByID(ctx, s.c, id)
}
