// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// collectionIndexes lists the desired indexes per collection.
var collectionIndexes = []struct {
	collection string
	models     []mongo.IndexModel
}{
	{"users", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
	}},
	{"announcements", []mongo.IndexModel{
		// public list: active, newest first
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "published_date", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_announcements_active_published"),
		},
	}},
	{"branches", []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "is_active", Value: 1},
				{Key: "is_head_office", Value: -1},
				{Key: "sort_order", Value: 1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_branches_active_order"),
		},
	}},
	{"calendar_events", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "start_at", Value: 1}},
			Options: options.Index().SetName("idx_events_active_start"),
		},
	}},
	{"consultations", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_consultations_status_submitted"),
		},
		{
			Keys:    bson.D{{Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_consultations_submitted"),
		},
	}},
	{"gallery", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "sort_order", Value: 1}},
			Options: options.Index().SetName("idx_gallery_category_order"),
		},
	}},
	{"jobs", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_jobs_active_created"),
		},
	}},
	{"job_applications", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "job_id", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_applications_job_submitted"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_applications_status_submitted"),
		},
	}},
	{"popups", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_popups_active_updated"),
		},
	}},
	{"social_posts", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "platform", Value: 1}, {Key: "sort_order", Value: 1}},
			Options: options.Index().SetName("idx_social_active_platform_order"),
		},
	}},
	{"team_members", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "sort_order", Value: 1}},
			Options: options.Index().SetName("idx_team_active_order"),
		},
	}},
	{"testimonials", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_approved", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_testimonials_approved_created"),
		},
	}},
	{"chat_sessions", []mongo.IndexModel{
		// At most one active session per visitor. GetOrCreateSession relies on
		// this to turn a concurrent first contact into a duplicate key.
		{
			Keys: bson.D{{Key: "visitor_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "active"}).
				SetName("uniq_chat_sessions_active_visitor"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "last_message_at", Value: -1}},
			Options: options.Index().SetName("idx_chat_sessions_status_last"),
		},
		{
			Keys:    bson.D{{Key: "last_message_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_chat_sessions_last"),
		},
	}},
	{"chat_messages", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_chat_messages_session_created"),
		},
	}},
	{"audit_events", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_actor_timestamp"),
		},
	}},
}

/*
EnsureAll is called at startup. Each collection is reconciled independently
and errors are aggregated so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, ci := range collectionIndexes {
		if err := ensureIndexSet(ctx, db.Collection(ci.collection), ci.models); err != nil {
			problems = append(problems, ci.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Collections returns the names of every collection with managed indexes.
func Collections() []string {
	out := make([]string, 0, len(collectionIndexes))
	for _, ci := range collectionIndexes {
		out = append(out, ci.collection)
	}
	return out
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.M `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

type desired struct {
	name    string
	unique  bool
	partial bson.M
}

func describe(m mongo.IndexModel) desired {
	var d desired
	if m.Options == nil {
		return d
	}
	if m.Options.Name != nil {
		d.name = *m.Options.Name
	}
	if m.Options.Unique != nil {
		d.unique = *m.Options.Unique
	}
	if pf, ok := m.Options.PartialFilterExpression.(bson.M); ok {
		d.partial = pf
	}
	return d
}

// sameOptions compares the options that change index semantics. The
// partial filter is compared through a bson round trip so that int32 and
// string values decoded from the server match the Go literals.
func sameOptions(d desired, ex existingIndex) bool {
	exUnique := ex.Unique != nil && *ex.Unique
	if d.unique != exUnique {
		return false
	}
	if len(d.partial) == 0 && len(ex.Partial) == 0 {
		return true
	}
	a, errA := bson.Marshal(d.partial)
	b, errB := bson.Marshal(ex.Partial)
	if errA != nil || errB != nil {
		return false
	}
	var am, bm bson.M
	_ = bson.Unmarshal(a, &am)
	_ = bson.Unmarshal(b, &bm)
	return reflect.DeepEqual(am, bm)
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet lists as an error on some servers.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		d := describe(m)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if sameOptions(d, ex) && (d.name == "" || d.name == ex.Name) {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// Options or name differ: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", d.name, ex.Name, err))
				continue
			}
			zap.L().Info("dropped index for recreation",
				zap.String("collection", coll.Name()),
				zap.String("name", ex.Name),
				zap.String("keys", sig))
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if d.unique && mongo.IsDuplicateKeyError(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", d.name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", d.name, err))
			}
			continue
		}
		zap.L().Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", sig),
			zap.Bool("unique", d.unique),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
