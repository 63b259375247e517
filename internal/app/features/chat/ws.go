// internal/app/features/chat/ws.go
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	"github.com/dalemusser/consultancy/internal/app/system/realtime"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	maxFrameBytes = 4096
)

// clientFrame is what a socket client may send. Messages still go through
// the HTTP endpoints so they share validation and rate limiting.
type clientFrame struct {
	Type     string `json:"type"` // typing | heartbeat
	IsTyping bool   `json:"is_typing"`
	Online   bool   `json:"online"`
	Name     string `json:"name,omitempty"`
}

// originChecker allows same-host upgrades plus any listed origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// VisitorSocket streams one session's events to the visitor.
func (h *Handler) VisitorSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	h.serveSocket(w, r, h.Svc.Hub.Subscribe(id.Hex()), id, signals.RoleVisitor)
}

// AdminSessionSocket streams one session's events to an admin.
func (h *Handler) AdminSessionSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	h.serveSocket(w, r, h.Svc.Hub.Subscribe(id.Hex()), id, signals.RoleAdmin)
}

// AdminSocket streams events for every session, for the inbox view.
// Client frames must name their session.
func (h *Handler) AdminSocket(w http.ResponseWriter, r *http.Request) {
	h.serveSocket(w, r, h.Svc.Hub.SubscribeAll(), primitive.NilObjectID, signals.RoleAdmin)
}

func (h *Handler) serveSocket(w http.ResponseWriter, r *http.Request, sub *realtime.Subscription, sessionID primitive.ObjectID, role signals.Role) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		// Upgrade has already written the error response.
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	nameCtx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	name := h.displayName(nameCtx, r, role, sessionID)
	cancel()
	h.Log.Debug("websocket connected",
		zap.String("session_id", sub.SessionID()),
		zap.String("role", string(role)))

	done := make(chan struct{})
	go h.writePump(conn, sub, done)
	h.readPump(conn, sessionID, role, name)
	close(done)
	sub.Close()
}

// writePump owns all writes to conn.
func (h *Handler) writePump(conn *websocket.Conn, sub *realtime.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case ev, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readPump handles client frames until the connection drops. A visitor
// going away is recorded as offline.
func (h *Handler) readPump(conn *websocket.Conn, sessionID primitive.ObjectID, role signals.Role, name string) {
	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Log.Debug("websocket read failed", zap.Error(err))
			}
			break
		}
		var frame struct {
			clientFrame
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		sid := sessionID
		if sid.IsZero() {
			if sid, err = primitive.ObjectIDFromHex(frame.SessionID); err != nil {
				continue
			}
		}
		h.applyFrame(sid, role, name, frame.clientFrame)
	}

	if !sessionID.IsZero() && role == signals.RoleVisitor {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		defer cancel()
		if _, err := h.Svc.Heartbeat(ctx, sessionID, role, false); err != nil {
			h.Log.Warn("mark visitor offline failed", zap.String("session_id", sessionID.Hex()), zap.Error(err))
		}
	}
}

func (h *Handler) applyFrame(sid primitive.ObjectID, role signals.Role, name string, f clientFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()
	if f.Name != "" && role == signals.RoleVisitor {
		name = f.Name
	}
	var err error
	switch f.Type {
	case "typing":
		_, err = h.Svc.SetTyping(ctx, sid, role, name, f.IsTyping)
	case "heartbeat":
		_, err = h.Svc.Heartbeat(ctx, sid, role, f.Online)
	default:
		return
	}
	if err != nil {
		h.Log.Warn("websocket frame failed",
			zap.String("session_id", sid.Hex()),
			zap.String("type", f.Type),
			zap.Error(err))
	}
}
