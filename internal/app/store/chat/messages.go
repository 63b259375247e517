package chatstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const touchAttempts = 3

var chronological = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

// AppendMessage stores a message stamped with server time T, then moves the
// session's last_message_at to T. The second write is retried; $max keeps
// the field monotonic when sends race.
func (s *Store) AppendMessage(ctx context.Context, sessionID primitive.ObjectID, text, senderName string, fromAdmin bool) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	msg := models.ChatMessage{
		ID:          primitive.NewObjectID(),
		SessionID:   sessionID,
		Message:     text,
		SenderName:  strings.TrimSpace(senderName),
		IsFromAdmin: fromAdmin,
		CreatedAt:   serverNow(),
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return models.ChatMessage{}, fmt.Errorf("insert message: %w", err)
	}

	var err error
	for attempt := 1; attempt <= touchAttempts; attempt++ {
		if err = s.touch(ctx, sessionID, msg.CreatedAt); err == nil {
			return msg, nil
		}
		if ctx.Err() != nil {
			break
		}
		s.log.Warn("touch last_message_at failed",
			zap.String("session_id", sessionID.Hex()),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	// The message is stored; only the session ordering hint is stale.
	return msg, fmt.Errorf("update last_message_at: %w", err)
}

func (s *Store) touch(ctx context.Context, sessionID primitive.ObjectID, at time.Time) error {
	res, err := s.sessions.UpdateOne(ctx, bson.M{"_id": sessionID}, bson.M{
		"$max": bson.M{"last_message_at": at},
		"$set": bson.M{"updated_at": serverNow()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// GetMessages returns every message of the session in send order.
func (s *Store) GetMessages(ctx context.Context, sessionID primitive.ObjectID) ([]models.ChatMessage, error) {
	return docstore.Find[models.ChatMessage](ctx, s.messages,
		bson.M{"session_id": sessionID}, options.Find().SetSort(chronological))
}

// MessagesSince returns messages created strictly after since, in send order.
// Clients that lost their websocket use it to catch up.
func (s *Store) MessagesSince(ctx context.Context, sessionID primitive.ObjectID, since time.Time) ([]models.ChatMessage, error) {
	return docstore.Find[models.ChatMessage](ctx, s.messages,
		bson.M{"session_id": sessionID, "created_at": bson.M{"$gt": since.UTC()}},
		options.Find().SetSort(chronological))
}

// SessionSummary is one row of the admin inbox.
type SessionSummary struct {
	models.ChatSession `bson:",inline"`
	LatestMessage      *models.ChatMessage `json:"latest_message,omitempty"`
	UnreadCount        int64               `json:"unread_count"`
}

// ListSessions returns sessions most recently active first, each with its
// latest message and the number of visitor messages newer than the admin
// read cursor. An empty status lists every session.
func (s *Store) ListSessions(ctx context.Context, status string) ([]SessionSummary, error) {
	match := bson.M{}
	if status != "" {
		match["status"] = status
	}
	epoch := time.Unix(0, 0).UTC()
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "last_message_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from": MessagesCollection,
			"let":  bson.M{"sid": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$session_id", "$$sid"}}}},
				bson.M{"$sort": bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
				bson.M{"$limit": 1},
			},
			"as": "latest",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from": MessagesCollection,
			"let": bson.M{
				"sid":  "$_id",
				"read": bson.M{"$ifNull": bson.A{"$admin_read_at", epoch}},
			},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$session_id", "$$sid"}},
					bson.M{"$eq": bson.A{"$is_from_admin", false}},
					bson.M{"$gt": bson.A{"$created_at", "$$read"}},
				}}}},
				bson.M{"$count": "n"},
			},
			"as": "unread",
		}}},
	}

	cur, err := s.sessions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []SessionSummary{}
	for cur.Next(ctx) {
		var row struct {
			models.ChatSession `bson:",inline"`
			Latest             []models.ChatMessage `bson:"latest"`
			Unread             []struct {
				N int64 `bson:"n"`
			} `bson:"unread"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		sum := SessionSummary{ChatSession: row.ChatSession}
		if len(row.Latest) > 0 {
			m := row.Latest[0]
			sum.LatestMessage = &m
		}
		if len(row.Unread) > 0 {
			sum.UnreadCount = row.Unread[0].N
		}
		out = append(out, sum)
	}
	return out, cur.Err()
}

// UnreadCount returns the number of visitor messages newer than the session's
// admin read cursor.
func (s *Store) UnreadCount(ctx context.Context, sess models.ChatSession) (int64, error) {
	filter := bson.M{"session_id": sess.ID, "is_from_admin": false}
	if sess.AdminReadAt != nil {
		filter["created_at"] = bson.M{"$gt": *sess.AdminReadAt}
	}
	return s.messages.CountDocuments(ctx, filter)
}
