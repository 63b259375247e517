// internal/app/store/metrics/metricsstore.go
package metricsstore

import (
	"context"
	"time"

	chatstore "github.com/dalemusser/consultancy/internal/app/store/chat"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on the admin dashboard.
type Counts struct {
	ConsultationsPending int64 `json:"consultations_pending"`
	ConsultationsTotal   int64 `json:"consultations_total"`
	ChatsActive          int64 `json:"chats_active"`
	ChatsUnread          int64 `json:"chats_unread"`
	ApplicationsNew      int64 `json:"applications_new"`
	JobsOpen             int64 `json:"jobs_open"`
	TestimonialsPending  int64 `json:"testimonials_pending"`
	UpcomingEvents       int64 `json:"upcoming_events"`
}

// FetchDashboardCounts returns the high-level counts used by the dashboard.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, now time.Time) Counts {
	var out Counts
	count := func(dst *int64, coll string, filter bson.M) {
		if n, err := db.Collection(coll).CountDocuments(ctx, filter); err == nil {
			*dst = n
		}
	}

	count(&out.ConsultationsPending, "consultations", bson.M{"status": models.ConsultationPending})
	count(&out.ConsultationsTotal, "consultations", bson.M{})

	count(&out.ChatsActive, chatstore.SessionsCollection, bson.M{"status": models.ChatActive})
	// active sessions with activity after the admin read cursor
	count(&out.ChatsUnread, chatstore.SessionsCollection, bson.M{
		"status": models.ChatActive,
		"$or": bson.A{
			bson.M{"admin_read_at": bson.M{"$exists": false}},
			bson.M{"$expr": bson.M{"$gt": bson.A{"$last_message_at", "$admin_read_at"}}},
		},
	})

	count(&out.ApplicationsNew, "job_applications", bson.M{"status": models.ApplicationReceived})
	count(&out.JobsOpen, "jobs", bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"deadline": bson.M{"$exists": false}},
			bson.M{"deadline": nil},
			bson.M{"deadline": bson.M{"$gt": now}},
		},
	})
	count(&out.TestimonialsPending, "testimonials", bson.M{"is_approved": false})
	count(&out.UpcomingEvents, "calendar_events", bson.M{"start_at": bson.M{"$gte": now}})

	return out
}
