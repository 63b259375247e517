// internal/app/features/consultations/handler.go
package consultations

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	consultationstore "github.com/dalemusser/consultancy/internal/app/store/consultations"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/ratelimit"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const entity = "consultation"

type Handler struct {
	Store *consultationstore.Store
	Audit *auditlog.Logger
	Limit *ratelimit.Limiter
	Log   *zap.Logger
}

// NewHandler allows 5 bookings per client IP, then one per minute.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store: consultationstore.New(db),
		Audit: audit,
		Limit: ratelimit.New("consultation", 5, time.Minute),
		Log:   logger,
	}
}

func (h *Handler) MountPublic(r chi.Router) {
	r.With(h.Limit.Middleware).Post("/", h.Submit)
}

func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/counts", h.Counts)
	r.Get("/{id}", h.Show)
	r.Patch("/{id}", h.UpdateStatus)
	r.Delete("/{id}", h.Delete)
}

type bookingRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,max=40"`
	Destination string `json:"destination" validate:"required"`
	Education   string `json:"education" validate:"required"`
	Message     string `json:"message" validate:"max=2000"`
}

type statusRequest struct {
	Status     string  `json:"status" validate:"required,oneof=pending contacted completed"`
	AdminNotes *string `json:"admin_notes"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	c, err := h.Store.Create(ctx, models.Consultation{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Destination: req.Destination,
		Education:   req.Education,
		Message:     req.Message,
	})
	if err != nil {
		respond.Internal(w, r, h.Log, "create consultation failed", err)
		return
	}
	h.Log.Info("consultation booked", zap.String("id", c.ID.Hex()), zap.String("destination", c.Destination))
	respond.Created(w, c)
}

// List serves GET /admin/consultations?status=pending.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.List(ctx, r.URL.Query().Get("status"))
	if errors.Is(err, consultationstore.ErrInvalidStatus) {
		respond.BadRequest(w, validate.Errors{"status": "is invalid"})
		return
	}
	if err != nil {
		respond.Internal(w, r, h.Log, "list consultations failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	counts, err := h.Store.CountsByStatus(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "count consultations failed", err)
		return
	}
	respond.OK(w, counts)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	c, err := h.Store.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	respond.OK(w, c)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	c, err := h.Store.UpdateStatus(ctx, id, req.Status, req.AdminNotes)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.StatusChanged(ctx, r, entity, id.Hex(), c.Status)
	respond.OK(w, c)
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
