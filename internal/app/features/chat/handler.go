// internal/app/features/chat/handler.go
package chat

import (
	"context"
	"net/http"
	"time"

	chatstore "github.com/dalemusser/consultancy/internal/app/store/chat"
	settingsstore "github.com/dalemusser/consultancy/internal/app/store/settings"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/auth"
	"github.com/dalemusser/consultancy/internal/app/system/ratelimit"
	"github.com/dalemusser/consultancy/internal/app/system/realtime"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the visitor chat widget and the admin inbox.
type Handler struct {
	Svc      *Service
	Settings *settingsstore.Store
	Tokens   *auth.VisitorTokens
	Audit    *auditlog.Logger
	Log      *zap.Logger

	startLimit *ratelimit.Limiter
	sendLimit  *ratelimit.Limiter
	upgrader   websocket.Upgrader
}

// NewHandler wires the chat feature. allowedOrigins restricts websocket
// upgrades; empty means same-origin only.
func NewHandler(
	db *mongo.Database,
	hub *realtime.Hub,
	tracker *signals.Tracker,
	tokens *auth.VisitorTokens,
	audit *auditlog.Logger,
	allowedOrigins []string,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		Svc:        NewService(chatstore.New(db, logger), hub, tracker, logger),
		Settings:   settingsstore.New(db),
		Tokens:     tokens,
		Audit:      audit,
		Log:        logger,
		startLimit: ratelimit.New("chat_start", 5, time.Minute),
		sendLimit:  ratelimit.New("chat_message", 20, time.Second),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// MountPublic mounts the visitor endpoints under /api/chat.
func (h *Handler) MountPublic(r chi.Router) {
	r.With(h.startLimit.Middleware).Post("/sessions", h.StartSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(h.requireVisitor)
		r.Patch("/", h.UpdateDetails)
		r.Get("/messages", h.VisitorMessages)
		r.With(h.sendLimit.Middleware).Post("/messages", h.VisitorSend)
		r.Post("/typing", h.VisitorTyping)
		r.Post("/heartbeat", h.VisitorHeartbeat)
		r.Get("/state", h.State)
		r.Get("/ws", h.VisitorSocket)
	})
}

// MountAdmin mounts the inbox under /admin/chat.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/sessions", h.ListSessions)
	r.Get("/counts", h.Counts)
	r.Get("/ws", h.AdminSocket)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.ShowSession)
		r.Delete("/", h.DeleteSession)
		r.Get("/messages", h.AdminMessages)
		r.Post("/messages", h.Reply)
		r.Post("/read", h.MarkRead)
		r.Post("/close", h.CloseSession)
		r.Post("/typing", h.AdminTyping)
		r.Post("/heartbeat", h.AdminHeartbeat)
		r.Get("/state", h.State)
		r.Get("/ws", h.AdminSessionSocket)
	})
}

type visitorCtxKey struct{}

// requireVisitor checks the chat token against the {id} in the path.
func (h *Handler) requireVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, vid, err := h.Tokens.Verify(auth.FromRequest(r))
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		if sid != chi.URLParam(r, "id") {
			respond.Error(w, http.StatusForbidden, "chat token does not match this session")
			return
		}
		ctx := context.WithValue(r.Context(), visitorCtxKey{}, vid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func visitorID(r *http.Request) string {
	v, _ := r.Context().Value(visitorCtxKey{}).(string)
	return v
}

// timing tells clients how to pace typing and heartbeat signals.
type timing struct {
	TypingTTLMs   int64 `json:"typing_ttl_ms"`
	TypingIdleMs  int64 `json:"typing_idle_ms"`
	PresenceTTLMs int64 `json:"presence_ttl_ms"`
	HeartbeatMs   int64 `json:"heartbeat_ms"`
}

func (h *Handler) timing() timing {
	cfg := h.Svc.Signals.Config()
	return timing{
		TypingTTLMs:   cfg.TypingTTL.Milliseconds(),
		TypingIdleMs:  cfg.TypingIdle.Milliseconds(),
		PresenceTTLMs: cfg.PresenceTTL.Milliseconds(),
		HeartbeatMs:   cfg.HeartbeatEvery.Milliseconds(),
	}
}
