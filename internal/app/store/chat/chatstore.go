// internal/app/store/chat/chatstore.go
//
// Package chatstore persists chat sessions and their messages. Sessions live
// in chat_sessions and messages in chat_messages, linked by session_id.
package chatstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/app/system/txn"
	"github.com/dalemusser/consultancy/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	SessionsCollection = "chat_sessions"
	MessagesCollection = "chat_messages"
)

var (
	// ErrEmptyVisitorID is returned when a session is requested without a visitor id.
	ErrEmptyVisitorID = errors.New("visitor id is required")
	// ErrEmptyMessage is returned for a blank message body.
	ErrEmptyMessage = errors.New("message is empty")
)

type Store struct {
	client   *mongo.Client
	sessions *mongo.Collection
	messages *mongo.Collection
	log      *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client:   db.Client(),
		sessions: db.Collection(SessionsCollection),
		messages: db.Collection(MessagesCollection),
		log:      logger,
	}
}

// serverNow is the store clock. Mongo keeps millisecond precision, so
// truncating here makes returned values equal what a later read sees.
func serverNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Sessions                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// GetOrCreateSession returns the visitor's active session, creating one when
// none exists. A unique partial index on visitor_id (status "active") makes
// concurrent first contact converge: the losing upsert hits a duplicate key
// and re-reads the winner. created reports whether this call inserted.
func (s *Store) GetOrCreateSession(ctx context.Context, visitorID string) (sess models.ChatSession, created bool, err error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return models.ChatSession{}, false, ErrEmptyVisitorID
	}

	now := serverNow()
	newID := primitive.NewObjectID()
	// visitor_id and status are seeded from the equality filter on insert
	filter := bson.M{"visitor_id": visitorID, "status": models.ChatActive}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":             newID,
		"last_message_at": now,
		"created_at":      now,
		"updated_at":      now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	for attempt := 0; attempt < 3; attempt++ {
		err = s.sessions.FindOneAndUpdate(ctx, filter, update, opts).Decode(&sess)
		if err == nil {
			return sess, sess.ID == newID, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.ChatSession{}, false, err
		}
		s.log.Debug("chat session upsert raced; re-reading",
			zap.String("visitor_id", visitorID), zap.Int("attempt", attempt))
		sess, err = docstore.FindOne[models.ChatSession](ctx, s.sessions, filter)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return models.ChatSession{}, false, err
		}
		// the winner closed between our insert and read; go again
	}
	return models.ChatSession{}, false, fmt.Errorf("get or create chat session: %w", err)
}

// FindActiveSession returns the visitor's active session or nil.
func (s *Store) FindActiveSession(ctx context.Context, visitorID string) (*models.ChatSession, error) {
	sess, err := docstore.FindOne[models.ChatSession](ctx, s.sessions,
		bson.M{"visitor_id": visitorID, "status": models.ChatActive})
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) GetSession(ctx context.Context, id primitive.ObjectID) (models.ChatSession, error) {
	return docstore.Get[models.ChatSession](ctx, s.sessions, id)
}

// Details are the optional visitor contact fields. Nil fields are unchanged.
type Details struct {
	Name  *string
	Email *string
	Phone *string
}

// UpdateSessionDetails applies the non-nil fields of d.
func (s *Store) UpdateSessionDetails(ctx context.Context, id primitive.ObjectID, d Details) (models.ChatSession, error) {
	set := bson.M{"updated_at": serverNow()}
	if d.Name != nil {
		set["visitor_name"] = strings.TrimSpace(*d.Name)
	}
	if d.Email != nil {
		set["visitor_email"] = strings.TrimSpace(*d.Email)
	}
	if d.Phone != nil {
		set["visitor_phone"] = strings.TrimSpace(*d.Phone)
	}
	return docstore.SetByID[models.ChatSession](ctx, s.sessions, id, set)
}

// CloseSession marks the session closed. Closing twice keeps the first closed_at.
func (s *Store) CloseSession(ctx context.Context, id primitive.ObjectID) (models.ChatSession, error) {
	now := serverNow()
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"status":     models.ChatClosed,
		"closed_at":  bson.M{"$ifNull": bson.A{"$closed_at", now}},
		"updated_at": now,
	}}}}
	return docstore.UpdateByID[models.ChatSession](ctx, s.sessions, id, update)
}

// MarkRead moves the shared admin read cursor to at. The cursor never moves back.
func (s *Store) MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) (models.ChatSession, error) {
	at = at.UTC().Truncate(time.Millisecond)
	return docstore.UpdateByID[models.ChatSession](ctx, s.sessions, id, bson.M{
		"$max": bson.M{"admin_read_at": at},
	})
}

// DeleteSession removes the session and all of its messages, returning how
// many messages were deleted. Messages go first so that without transaction
// support a failure leaves an empty session, never messages without one.
func (s *Store) DeleteSession(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var deleted int64
	transactional, err := txn.Run(ctx, s.client, func(ctx context.Context) error {
		deleted = 0
		res, err := s.messages.DeleteMany(ctx, bson.M{"session_id": id})
		if err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		deleted = res.DeletedCount
		return docstore.DeleteByID(ctx, s.sessions, id)
	})
	if err != nil {
		return deleted, err
	}
	s.log.Debug("chat session deleted",
		zap.String("session_id", id.Hex()),
		zap.Int64("messages", deleted),
		zap.Bool("transactional", transactional))
	return deleted, nil
}

// CountByStatus returns the number of sessions per status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return docstore.CountBy(ctx, s.sessions, "status")
}
