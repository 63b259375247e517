// internal/app/features/chat/service.go
package chat

import (
	"context"
	"errors"
	"time"

	chatstore "github.com/dalemusser/consultancy/internal/app/store/chat"
	"github.com/dalemusser/consultancy/internal/app/system/metrics"
	"github.com/dalemusser/consultancy/internal/app/system/realtime"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrSessionClosed is returned when a visitor writes to a closed session.
var ErrSessionClosed = errors.New("chat session is closed")

// sessionChange is the payload of a KindSession event.
type sessionChange struct {
	Action  string              `json:"action"` // created | updated | closed | deleted | read
	Session *models.ChatSession `json:"session,omitempty"`
}

// Service is the chat domain: it writes through the store and announces
// every change on the hub.
type Service struct {
	Store   *chatstore.Store
	Hub     *realtime.Hub
	Signals *signals.Tracker
	Log     *zap.Logger
}

func NewService(store *chatstore.Store, hub *realtime.Hub, tracker *signals.Tracker, logger *zap.Logger) *Service {
	return &Service{Store: store, Hub: hub, Signals: tracker, Log: logger}
}

func (s *Service) publish(kind string, sessionID primitive.ObjectID, data any) {
	s.Hub.Publish(realtime.Event{Kind: kind, SessionID: sessionID.Hex(), Data: data})
}

// StartSession returns the visitor's active session, creating it on first contact.
func (s *Service) StartSession(ctx context.Context, visitorID string) (models.ChatSession, bool, error) {
	sess, created, err := s.Store.GetOrCreateSession(ctx, visitorID)
	if err != nil {
		return sess, false, err
	}
	if created {
		metrics.ChatSessionsCreated.Inc()
		s.publish(realtime.KindSession, sess.ID, sessionChange{Action: "created", Session: &sess})
	}
	return sess, created, nil
}

func (s *Service) UpdateDetails(ctx context.Context, id primitive.ObjectID, d chatstore.Details) (models.ChatSession, error) {
	sess, err := s.Store.UpdateSessionDetails(ctx, id, d)
	if err != nil {
		return sess, err
	}
	s.publish(realtime.KindSession, id, sessionChange{Action: "updated", Session: &sess})
	return sess, nil
}

// SendMessage stores a message and publishes it. Visitors cannot write to a
// closed session; admins can, and the session stays closed.
func (s *Service) SendMessage(ctx context.Context, sessionID primitive.ObjectID, text, senderName string, fromAdmin bool) (models.ChatMessage, error) {
	sess, err := s.Store.GetSession(ctx, sessionID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if !fromAdmin && !sess.IsActive() {
		return models.ChatMessage{}, ErrSessionClosed
	}
	msg, err := s.Store.AppendMessage(ctx, sessionID, text, senderName, fromAdmin)
	if err != nil && msg.ID.IsZero() {
		return models.ChatMessage{}, err
	}
	if err != nil {
		// stored, but the inbox ordering hint is stale
		s.Log.Warn("chat message stored without session touch",
			zap.String("session_id", sessionID.Hex()),
			zap.String("message_id", msg.ID.Hex()),
			zap.Error(err))
	}

	role := signals.RoleVisitor
	if fromAdmin {
		role = signals.RoleAdmin
	}
	metrics.ChatMessages.WithLabelValues(string(role)).Inc()
	s.publish(realtime.KindMessage, sessionID, msg)

	// sending ends the sender's typing indicator
	if ts, err := s.Signals.SetTyping(ctx, sessionID.Hex(), role, msg.SenderName, false); err == nil {
		s.publish(realtime.KindTyping, sessionID, ts)
	} else {
		s.Log.Warn("clear typing after send failed", zap.String("session_id", sessionID.Hex()), zap.Error(err))
	}
	return msg, nil
}

// Messages returns the whole conversation, or only messages after since
// when it is non-zero.
func (s *Service) Messages(ctx context.Context, sessionID primitive.ObjectID, since time.Time) ([]models.ChatMessage, error) {
	if since.IsZero() {
		return s.Store.GetMessages(ctx, sessionID)
	}
	return s.Store.MessagesSince(ctx, sessionID, since)
}

func (s *Service) SetTyping(ctx context.Context, sessionID primitive.ObjectID, role signals.Role, name string, typing bool) (signals.TypingState, error) {
	ts, err := s.Signals.SetTyping(ctx, sessionID.Hex(), role, name, typing)
	if err != nil {
		return ts, err
	}
	s.publish(realtime.KindTyping, sessionID, ts)
	return ts, nil
}

func (s *Service) Heartbeat(ctx context.Context, sessionID primitive.ObjectID, role signals.Role, online bool) (signals.PresenceState, error) {
	ps, err := s.Signals.Heartbeat(ctx, sessionID.Hex(), role, online)
	if err != nil {
		return ps, err
	}
	s.publish(realtime.KindPresence, sessionID, ps)
	return ps, nil
}

// MarkRead moves the admin read cursor to now.
func (s *Service) MarkRead(ctx context.Context, sessionID primitive.ObjectID) (models.ChatSession, error) {
	sess, err := s.Store.MarkRead(ctx, sessionID, time.Now())
	if err != nil {
		return sess, err
	}
	s.publish(realtime.KindSession, sessionID, sessionChange{Action: "read", Session: &sess})
	return sess, nil
}

func (s *Service) Close(ctx context.Context, sessionID primitive.ObjectID) (models.ChatSession, error) {
	sess, err := s.Store.CloseSession(ctx, sessionID)
	if err != nil {
		return sess, err
	}
	s.publish(realtime.KindSession, sessionID, sessionChange{Action: "closed", Session: &sess})
	return sess, nil
}

// Delete removes the session, its messages and its signals.
func (s *Service) Delete(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	n, err := s.Store.DeleteSession(ctx, sessionID)
	if err != nil {
		return n, err
	}
	if err := s.Signals.Clear(ctx, sessionID.Hex()); err != nil {
		s.Log.Warn("clear chat signals failed", zap.String("session_id", sessionID.Hex()), zap.Error(err))
	}
	s.publish(realtime.KindSession, sessionID, sessionChange{Action: "deleted"})
	return n, nil
}
