// internal/app/store/jobs/jobstore.go
package jobstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/app/system/htmlsanitize"
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
	return &Store{c: db.Collection("jobs")}
}

func clean(j *models.Job) {
	j.Description = htmlsanitize.Sanitize(j.Description)
	reqs := make([]string, 0, len(j.Requirements))
	for _, r := range j.Requirements {
		if r = strings.TrimSpace(r); r != "" {
			reqs = append(reqs, r)
		}
	}
	j.Requirements = reqs
	if j.Deadline != nil {
		d := j.Deadline.UTC()
		j.Deadline = &d
	}
}

func (s *Store) Create(ctx context.Context, j models.Job) (models.Job, error) {
	clean(&j)
	now := time.Now().UTC()
	j.ID = primitive.NewObjectID()
	j.CreatedAt = now
	j.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, j); err != nil {
		return models.Job{}, err
	}
	return j, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Job, error) {
	return docstore.Get[models.Job](ctx, s.c, id)
}

func (s *Store) List(ctx context.Context) ([]models.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return docstore.Find[models.Job](ctx, s.c, bson.M{}, opts)
}

// ListOpen returns jobs accepting applications at now: active and with no
// deadline or a deadline after now.
func (s *Store) ListOpen(ctx context.Context, now time.Time) ([]models.Job, error) {
	filter := bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"deadline": bson.M{"$exists": false}},
			bson.M{"deadline": nil},
			bson.M{"deadline": bson.M{"$gt": now.UTC()}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return docstore.Find[models.Job](ctx, s.c, filter, opts)
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, j models.Job) (models.Job, error) {
	clean(&j)
	set := bson.M{
		"title":           j.Title,
		"department":      j.Department,
		"location":        j.Location,
		"employment_type": j.EmploymentType,
		"description":     j.Description,
		"requirements":    j.Requirements,
		"salary_range":    j.SalaryRange,
		"is_active":       j.IsActive,
		"updated_at":      time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if j.Deadline != nil {
		set["deadline"] = *j.Deadline
	} else {
		update["$unset"] = bson.M{"deadline": ""}
	}
	return docstore.UpdateByID[models.Job](ctx, s.c, id, update)
}

func (s *Store) Toggle(ctx context.Context, id primitive.ObjectID) (models.Job, error) {
	return docstore.Toggle[models.Job](ctx, s.c, id, "is_active", time.Now().UTC())
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return docstore.DeleteByID(ctx, s.c, id)
}
