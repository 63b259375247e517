// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	chatstore "github.com/dalemusser/consultancy/internal/app/store/chat"
	"github.com/dalemusser/consultancy/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators to the ones written by the public site, where a bad document
// is most likely to come from. On servers that don't support
// collMod/validators (e.g. some DocumentDB versions), we log and skip.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema, logger); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure(chatstore.SessionsCollection, chatSessionsSchema())
	ensure(chatstore.MessagesCollection, chatMessagesSchema())
	ensure("consultations", consultationsSchema())
	ensure("job_applications", jobApplicationsSchema())
	ensure("testimonials", testimonialsSchema())

	// Content collections are admin-written; existence is enough.
	for _, coll := range []string{
		"site_settings", "announcements", "branches", "calendar_events", "gallery",
		"jobs", "popups", "social_posts", "team_members", "audit_events",
	} {
		ensure(coll, nil)
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		logger.Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			logger.Debug("collection exists", zap.String("collection", name))
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, logger *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	logger.Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// nonBlank matches a string with at least one non-space character.
var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enumOf(vals []string) bson.A {
	out := bson.A{}
	for _, v := range vals {
		out = append(out, v)
	}
	return out
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "email_ci", "password_hash", "role", "status"},
			"properties": bson.M{
				"full_name":     nonBlank,
				"email":         nonBlank,
				"email_ci":      nonBlank,
				"password_hash": nonBlank,
				"role":          bson.M{"enum": bson.A{models.RoleAdmin}},
				"status":        bson.M{"enum": bson.A{models.StatusActive, models.StatusDisabled}},
			},
		},
	}
}

func chatSessionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"visitor_id", "status", "last_message_at", "created_at"},
			"properties": bson.M{
				"visitor_id":      nonBlank,
				"status":          bson.M{"enum": bson.A{models.ChatActive, models.ChatClosed}},
				"last_message_at": bson.M{"bsonType": "date"},
				"admin_read_at":   bson.M{"bsonType": "date"},
				"closed_at":       bson.M{"bsonType": "date"},
				"created_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func chatMessagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"session_id", "message", "sender_name", "is_from_admin", "created_at"},
			"properties": bson.M{
				"session_id":    bson.M{"bsonType": "objectId"},
				"message":       nonBlank,
				"sender_name":   bson.M{"bsonType": "string"},
				"is_from_admin": bson.M{"bsonType": "bool"},
				"created_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func consultationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "phone", "destination", "education", "status", "submitted_at"},
			"properties": bson.M{
				"name":         nonBlank,
				"email":        nonBlank,
				"phone":        nonBlank,
				"destination":  nonBlank,
				"education":    nonBlank,
				"status":       bson.M{"enum": enumOf(models.ConsultationStatuses)},
				"submitted_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func jobApplicationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"job_id", "name", "email", "cv_key", "status", "submitted_at"},
			"properties": bson.M{
				"job_id":       bson.M{"bsonType": "objectId"},
				"name":         nonBlank,
				"email":        nonBlank,
				"cv_key":       nonBlank,
				"status":       bson.M{"enum": enumOf(models.ApplicationStatuses)},
				"submitted_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func testimonialsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "rating", "is_approved"},
			"properties": bson.M{
				"name":        nonBlank,
				"rating":      bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1, "maximum": 5},
				"is_approved": bson.M{"bsonType": "bool"},
			},
		},
	}
}
