// internal/app/features/chat/admin.go
package chat

import (
	"context"
	"net/http"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.uber.org/zap"
)

// ListSessions serves the inbox: GET /admin/chat/sessions?status=active|closed.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != models.ChatActive && status != models.ChatClosed {
		respond.BadRequest(w, validate.Errors{"status": "must be active or closed"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	list, err := h.Svc.Store.ListSessions(ctx, status)
	if err != nil {
		respond.Internal(w, r, h.Log, "list chat sessions failed", err)
		return
	}
	respond.OK(w, list)
}

func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	counts, err := h.Svc.Store.CountByStatus(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "count chat sessions failed", err)
		return
	}
	respond.OK(w, counts)
}

type sessionDetail struct {
	Session models.ChatSession `json:"session"`
	Unread  int64              `json:"unread"`
	State   signals.Snapshot   `json:"state"`
}

func (h *Handler) ShowSession(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sess, err := h.Svc.Store.GetSession(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, "chat session", err, zap.String("session_id", id.Hex()))
		return
	}
	unread, err := h.Svc.Store.UnreadCount(ctx, sess)
	if err != nil {
		respond.Internal(w, r, h.Log, "count unread failed", err, zap.String("session_id", id.Hex()))
		return
	}
	snap, err := h.Svc.Signals.Snapshot(ctx, id.Hex())
	if err != nil {
		h.Log.Warn("read chat state failed", zap.String("session_id", id.Hex()), zap.Error(err))
	}
	respond.OK(w, sessionDetail{Session: sess, Unread: unread, State: snap})
}

func (h *Handler) AdminMessages(w http.ResponseWriter, r *http.Request) {
	h.messages(w, r)
}

// Reply posts an admin message. Closed sessions accept replies and stay closed.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
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
	msg, err := h.Svc.SendMessage(ctx, id, req.Message, adminName(r), true)
	h.sent(w, r, id.Hex(), msg, err)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sess, err := h.Svc.MarkRead(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, "chat session", err, zap.String("session_id", id.Hex()))
		return
	}
	respond.OK(w, sess)
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sess, err := h.Svc.Close(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, "chat session", err, zap.String("session_id", id.Hex()))
		return
	}
	h.Audit.ChatClosed(ctx, r, id.Hex())
	respond.OK(w, sess)
}

// DeleteSession removes the session and all of its messages.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	n, err := h.Svc.Delete(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, "chat session", err, zap.String("session_id", id.Hex()))
		return
	}
	h.Audit.ChatDeleted(ctx, r, id.Hex(), n)
	respond.NoContent(w)
}

func (h *Handler) AdminTyping(w http.ResponseWriter, r *http.Request) {
	h.typing(w, r, signals.RoleAdmin)
}

func (h *Handler) AdminHeartbeat(w http.ResponseWriter, r *http.Request) {
	h.heartbeat(w, r, signals.RoleAdmin)
}
