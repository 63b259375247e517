// internal/app/features/chat/public.go
package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	chatstore "github.com/dalemusser/consultancy/internal/app/store/chat"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultVisitorName = "Visitor"

type startRequest struct {
	VisitorID string  `json:"visitor_id" validate:"required,max=128"`
	Name      *string `json:"name" validate:"omitempty,max=120"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=40"`
}

type startResponse struct {
	Session  models.ChatSession   `json:"session"`
	Created  bool                 `json:"created"`
	Token    string               `json:"token"`
	Greeting string               `json:"greeting,omitempty"`
	Messages []models.ChatMessage `json:"messages"`
	Timing   timing               `json:"timing"`
}

type detailsRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=120"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,max=40"`
}

type sendRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type typingRequest struct {
	IsTyping bool `json:"is_typing"`
}

type heartbeatRequest struct {
	Online bool `json:"online"`
}

// StartSession resumes the visitor's active session or opens a new one,
// and issues the token the visitor uses on every other chat call.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	site, err := h.Settings.Get(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "load settings failed", err)
		return
	}
	if !site.ChatEnabled {
		respond.Error(w, http.StatusServiceUnavailable, "chat is currently unavailable")
		return
	}

	sess, created, err := h.Svc.StartSession(ctx, req.VisitorID)
	if err != nil {
		respond.Internal(w, r, h.Log, "start chat session failed", err)
		return
	}
	if req.Name != nil || req.Email != nil || req.Phone != nil {
		updated, err := h.Svc.UpdateDetails(ctx, sess.ID, chatstore.Details{Name: req.Name, Email: req.Email, Phone: req.Phone})
		if err != nil {
			shared.StoreError(w, r, h.Log, "chat session", err, zap.String("session_id", sess.ID.Hex()))
			return
		}
		sess = updated
	}
	msgs := []models.ChatMessage{}
	if !created {
		if msgs, err = h.Svc.Messages(ctx, sess.ID, time.Time{}); err != nil {
			respond.Internal(w, r, h.Log, "load chat messages failed", err)
			return
		}
	}
	token, err := h.Tokens.Issue(sess.ID.Hex(), sess.VisitorID)
	if err != nil {
		respond.Internal(w, r, h.Log, "issue chat token failed", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(w, status, startResponse{
		Session:  sess,
		Created:  created,
		Token:    token,
		Greeting: site.ChatGreeting,
		Messages: msgs,
		Timing:   h.timing(),
	})
}

func (h *Handler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req detailsRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sess, err := h.Svc.UpdateDetails(ctx, id, chatstore.Details{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		shared.StoreError(w, r, h.Log, "chat session", err, zap.String("session_id", id.Hex()))
		return
	}
	respond.OK(w, sess)
}

// VisitorMessages serves GET .../messages?since=<RFC 3339>.
func (h *Handler) VisitorMessages(w http.ResponseWriter, r *http.Request) {
	h.messages(w, r)
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			respond.BadRequest(w, validate.Errors{"since": "must be an RFC 3339 timestamp"})
			return
		}
		since = t
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	msgs, err := h.Svc.Messages(ctx, id, since)
	if err != nil {
		respond.Internal(w, r, h.Log, "load chat messages failed", err, zap.String("session_id", id.Hex()))
		return
	}
	respond.OK(w, msgs)
}

func (h *Handler) VisitorSend(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req sendRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sess, err := h.Svc.Store.GetSession(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, "chat session", err, zap.String("session_id", id.Hex()))
		return
	}
	name := sess.VisitorName
	if name == "" {
		name = defaultVisitorName
	}
	msg, err := h.Svc.SendMessage(ctx, id, req.Message, name, false)
	h.sent(w, r, id.Hex(), msg, err)
}

// sent maps a SendMessage result onto the response.
func (h *Handler) sent(w http.ResponseWriter, r *http.Request, sid string, msg models.ChatMessage, err error) {
	switch {
	case errors.Is(err, ErrSessionClosed):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, chatstore.ErrEmptyMessage):
		respond.BadRequest(w, validate.Errors{"message": "is required"})
	case err != nil:
		shared.StoreError(w, r, h.Log, "chat session", err, zap.String("session_id", sid))
	default:
		respond.Created(w, msg)
	}
}

func (h *Handler) VisitorTyping(w http.ResponseWriter, r *http.Request) {
	h.typing(w, r, signals.RoleVisitor)
}

func (h *Handler) VisitorHeartbeat(w http.ResponseWriter, r *http.Request) {
	h.heartbeat(w, r, signals.RoleVisitor)
}

func (h *Handler) typing(w http.ResponseWriter, r *http.Request, role signals.Role) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req typingRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ts, err := h.Svc.SetTyping(ctx, id, role, h.displayName(ctx, r, role, id), req.IsTyping)
	if err != nil {
		respond.Internal(w, r, h.Log, "set typing failed", err, zap.String("session_id", id.Hex()))
		return
	}
	respond.OK(w, ts)
}

func (h *Handler) heartbeat(w http.ResponseWriter, r *http.Request, role signals.Role) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req heartbeatRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ps, err := h.Svc.Heartbeat(ctx, id, role, req.Online)
	if err != nil {
		respond.Internal(w, r, h.Log, "heartbeat failed", err, zap.String("session_id", id.Hex()))
		return
	}
	respond.OK(w, ps)
}

// State returns typing and presence for both sides, for clients that poll
// instead of holding a websocket.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	snap, err := h.Svc.Signals.Snapshot(ctx, id.Hex())
	if err != nil {
		respond.Internal(w, r, h.Log, "read chat state failed", err, zap.String("session_id", id.Hex()))
		return
	}
	respond.OK(w, snap)
}

// displayName is the name shown next to a typing indicator. Admins are
// named by their account; visitors by the name stored on their session.
func (h *Handler) displayName(ctx context.Context, r *http.Request, role signals.Role, sessionID primitive.ObjectID) string {
	if role == signals.RoleAdmin {
		return adminName(r)
	}
	return h.visitorName(ctx, sessionID)
}

func adminName(r *http.Request) string {
	if n := shared.ActorName(r); n != "" {
		return n
	}
	return "Support"
}

func (h *Handler) visitorName(ctx context.Context, sessionID primitive.ObjectID) string {
	if sessionID.IsZero() {
		return defaultVisitorName
	}
	sess, err := h.Svc.Store.GetSession(ctx, sessionID)
	if err != nil {
		h.Log.Debug("visitor name lookup failed", zap.String("session_id", sessionID.Hex()), zap.Error(err))
		return defaultVisitorName
	}
	if n := strings.TrimSpace(sess.VisitorName); n != "" {
		return n
	}
	return defaultVisitorName
}
