// internal/app/store/applications/applicationstore.go
package applicationstore

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

// ErrInvalidStatus is returned for an unknown application status.
var ErrInvalidStatus = errors.New("invalid application status")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("job_applications")}
}

// Create stores a new application with status "received".
func (s *Store) Create(ctx context.Context, a models.JobApplication) (models.JobApplication, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Status = models.ApplicationReceived
	a.SubmittedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.JobApplication{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.JobApplication, error) {
	return docstore.Get[models.JobApplication](ctx, s.c, id)
}

// List returns applications newest first. A zero jobID lists every job and
// an empty status lists every status.
func (s *Store) List(ctx context.Context, jobID primitive.ObjectID, status string) ([]models.JobApplication, error) {
	filter := bson.M{}
	if !jobID.IsZero() {
		filter["job_id"] = jobID
	}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}, {Key: "_id", Value: -1}})
	return docstore.Find[models.JobApplication](ctx, s.c, filter, opts)
}

func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (models.JobApplication, error) {
	if !models.IsValidApplicationStatus(status) {
		return models.JobApplication{}, ErrInvalidStatus
	}
	return docstore.SetByID[models.JobApplication](ctx, s.c, id, bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
}

// CountByJob returns the number of applications per job id.
func (s *Store) CountByJob(ctx context.Context) (map[primitive.ObjectID]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$job_id", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[primitive.ObjectID]int64{}
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return docstore.DeleteByID(ctx, s.c, id)
}
