// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/consultancy/internal/app/store/audit"
	"github.com/dalemusser/consultancy/internal/app/system/auth"
	"github.com/dalemusser/consultancy/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category: "all" (MongoDB + zap), "db", "log" or "off".
const (
	ModeAll = "all"
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config holds audit logging configuration per category.
type Config struct {
	Auth  string // login, logout
	Admin string // content CRUD, status changes, chat moderation
}

// Logger records audit events to MongoDB and/or zap.
// A nil *Logger is valid and logs nothing, which keeps handler tests simple.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) mode(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	}
	return ModeAll
}

// Log records event according to the category's mode.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	mode := l.mode(event.Category)
	if mode == ModeOff {
		return
	}
	if mode == ModeAll || mode == ModeLog || mode == "" {
		l.logToZap(event)
	}
	if (mode == ModeAll || mode == ModeDB || mode == "") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ActorEmail != "" {
		fields = append(fields, zap.String("actor_email", event.ActorEmail))
	}
	if event.Entity != "" {
		fields = append(fields, zap.String("entity", event.Entity), zap.String("entity_id", event.EntityID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// base fills request metadata and the signed-in actor.
func base(r *http.Request, category, eventType string) audit.Event {
	ev := audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
	if u, ok := auth.CurrentUser(r); ok {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			ev.ActorID = &oid
		}
		ev.ActorEmail = u.Email
	}
	return ev
}

// --- Authentication Events ---

// LoginSuccess logs a successful admin login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	ev := base(r, audit.CategoryAuth, audit.EventLoginSuccess)
	ev.ActorID = &userID
	ev.ActorEmail = email
	l.Log(ctx, ev)
}

// LoginFailed logs a failed login. eventType is one of the EventLoginFailed* constants.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType, email, reason string) {
	ev := base(r, audit.CategoryAuth, eventType)
	ev.Success = false
	ev.FailureReason = reason
	ev.Details = map[string]string{"attempted_email": email}
	l.Log(ctx, ev)
}

// Logout logs a logout by the current user.
func (l *Logger) Logout(ctx context.Context, r *http.Request) {
	l.Log(ctx, base(r, audit.CategoryAuth, audit.EventLogout))
}

// --- Admin Events ---

// ContentCreated logs creation of an entity ("announcements", "gallery", ...).
func (l *Logger) ContentCreated(ctx context.Context, r *http.Request, entity, id string) {
	l.entity(ctx, r, audit.EventContentCreated, entity, id, nil)
}

// ContentUpdated logs an update of an entity.
func (l *Logger) ContentUpdated(ctx context.Context, r *http.Request, entity, id string) {
	l.entity(ctx, r, audit.EventContentUpdated, entity, id, nil)
}

// ContentDeleted logs deletion of an entity.
func (l *Logger) ContentDeleted(ctx context.Context, r *http.Request, entity, id string) {
	l.entity(ctx, r, audit.EventContentDeleted, entity, id, nil)
}

// StatusChanged logs a workflow status change (booking, application, testimonial approval).
func (l *Logger) StatusChanged(ctx context.Context, r *http.Request, entity, id, status string) {
	l.entity(ctx, r, audit.EventStatusChanged, entity, id, map[string]string{"status": status})
}

// SettingsSaved logs a website settings update.
func (l *Logger) SettingsSaved(ctx context.Context, r *http.Request) {
	l.entity(ctx, r, audit.EventSettingsSaved, "settings", "site", nil)
}

// ChatClosed logs an admin closing a chat session.
func (l *Logger) ChatClosed(ctx context.Context, r *http.Request, sessionID string) {
	l.entity(ctx, r, audit.EventChatClosed, "chat_sessions", sessionID, nil)
}

// ChatDeleted logs an admin deleting a chat session and its messages.
func (l *Logger) ChatDeleted(ctx context.Context, r *http.Request, sessionID string, messages int64) {
	l.entity(ctx, r, audit.EventChatDeleted, "chat_sessions", sessionID, map[string]string{"messages_deleted": strconv.FormatInt(messages, 10)})
}

func (l *Logger) entity(ctx context.Context, r *http.Request, eventType, entity, id string, details map[string]string) {
	if l == nil {
		return
	}
	ev := base(r, audit.CategoryAdmin, eventType)
	ev.Entity = entity
	ev.EntityID = id
	ev.Details = details
	l.Log(ctx, ev)
}
