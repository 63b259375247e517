// internal/app/features/events/handler.go
package events

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	eventstore "github.com/dalemusser/consultancy/internal/app/store/events"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	entity       = "calendar_event"
	defaultLimit = 20
	maxLimit     = 100
)

type Handler struct {
	Store *eventstore.Store
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Store: eventstore.New(db), Audit: audit, Log: logger}
}

func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.ListUpcoming)
}

func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type eventRequest struct {
	Title           string     `json:"title" validate:"required,max=200"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	EventType       string     `json:"event_type"`
	StartAt         time.Time  `json:"start_at" validate:"required"`
	EndAt           *time.Time `json:"end_at"`
	RegistrationURL string     `json:"registration_url" validate:"omitempty,url"`
	IsActive        *bool      `json:"is_active"`
}

func (req eventRequest) model() models.CalendarEvent {
	e := models.CalendarEvent{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		EventType:       req.EventType,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		RegistrationURL: req.RegistrationURL,
		IsActive:        true,
	}
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
	}
	return e
}

// ListUpcoming serves GET /api/events?limit=N.
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			respond.BadRequest(w, validate.Errors{"limit": "must be a positive integer"})
			return
		}
		limit = min(n, maxLimit)
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.ListUpcoming(ctx, time.Now(), limit)
	if err != nil {
		respond.Internal(w, r, h.Log, "list upcoming events failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.List(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list events failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	e, err := h.Store.Create(ctx, req.model())
	if errors.Is(err, eventstore.ErrEndBeforeStart) {
		respond.BadRequest(w, validate.Errors{"end_at": "must not be before start_at"})
		return
	}
	if err != nil {
		respond.Internal(w, r, h.Log, "create event failed", err)
		return
	}
	h.Audit.ContentCreated(ctx, r, entity, e.ID.Hex())
	respond.Created(w, e)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	e, err := h.Store.Update(ctx, id, req.model())
	if errors.Is(err, eventstore.ErrEndBeforeStart) {
		respond.BadRequest(w, validate.Errors{"end_at": "must not be before start_at"})
		return
	}
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, e)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Store.Delete(ctx, id); err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentDeleted(ctx, r, entity, id.Hex())
	respond.NoContent(w)
}
