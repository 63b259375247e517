// internal/app/features/social/handler.go
package social

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	socialstore "github.com/dalemusser/consultancy/internal/app/store/social"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const entity = "social_post"

type Handler struct {
	Store *socialstore.Store
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Store: socialstore.New(db), Audit: audit, Log: logger}
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

type postRequest struct {
	Platform     string `json:"platform" validate:"required,oneof=facebook instagram tiktok youtube linkedin"`
	PostURL      string `json:"post_url" validate:"required,url"`
	Caption      string `json:"caption" validate:"max=500"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
	IsActive     *bool  `json:"is_active"`
	SortOrder    int    `json:"sort_order"`
}

func (req postRequest) model() models.SocialPost {
	p := models.SocialPost{
		Platform:     req.Platform,
		PostURL:      req.PostURL,
		Caption:      req.Caption,
		ThumbnailURL: req.ThumbnailURL,
		IsActive:     true,
		SortOrder:    req.SortOrder,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	return p
}

func badInput(err error) bool {
	return errors.Is(err, socialstore.ErrInvalidPlatform) || errors.Is(err, socialstore.ErrInvalidURL)
}

// ListActive serves GET /api/social?platform=instagram.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.ListActive(ctx, r.URL.Query().Get("platform"))
	if err != nil {
		respond.Internal(w, r, h.Log, "list social posts failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.List(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list social posts failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.Store.Create(ctx, req.model())
	if badInput(err) {
		respond.BadRequest(w, err)
		return
	}
	if err != nil {
		respond.Internal(w, r, h.Log, "create social post failed", err)
		return
	}
	h.Audit.ContentCreated(ctx, r, entity, p.ID.Hex())
	respond.Created(w, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req postRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.Store.Update(ctx, id, req.model())
	if badInput(err) {
		respond.BadRequest(w, err)
		return
	}
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, p)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.Store.Toggle(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, p)
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
