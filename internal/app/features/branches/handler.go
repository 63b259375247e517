// internal/app/features/branches/handler.go
package branches

import (
	"context"
	"net/http"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	branchstore "github.com/dalemusser/consultancy/internal/app/store/branches"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const entity = "branch"

type Handler struct {
	Store *branchstore.Store
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Store: branchstore.New(db), Audit: audit, Log: logger}
}

func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.ListActive)
}

func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/toggle", h.Toggle)
	r.Delete("/{id}", h.Delete)
}

type branchRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Address      string `json:"address" validate:"required"`
	City         string `json:"city" validate:"required"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Email        string `json:"email" validate:"omitempty,email"`
	MapURL       string `json:"map_url" validate:"omitempty,url"`
	IsHeadOffice bool   `json:"is_head_office"`
	SortOrder    int    `json:"sort_order"`
	IsActive     *bool  `json:"is_active"`
}

func (req branchRequest) model() models.Branch {
	b := models.Branch{
		Name:         req.Name,
		Address:      req.Address,
		City:         req.City,
		Country:      req.Country,
		Phone:        req.Phone,
		Email:        req.Email,
		MapURL:       req.MapURL,
		IsHeadOffice: req.IsHeadOffice,
		SortOrder:    req.SortOrder,
		IsActive:     true,
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	return b
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.ListActive(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list branches failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.List(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list branches failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	b, err := h.Store.Create(ctx, req.model())
	if err != nil {
		respond.Internal(w, r, h.Log, "create branch failed", err)
		return
	}
	h.Audit.ContentCreated(ctx, r, entity, b.ID.Hex())
	respond.Created(w, b)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req branchRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	b, err := h.Store.Update(ctx, id, req.model())
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, b)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	b, err := h.Store.Toggle(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, b)
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
