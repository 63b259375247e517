// internal/app/features/announcements/announcements.go
package announcements

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	announcementstore "github.com/dalemusser/consultancy/internal/app/store/announcements"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.uber.org/zap"
)

const entity = "announcement"

type announcementRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Content       string     `json:"content" validate:"required"`
	Category      string     `json:"category" validate:"omitempty,oneof=general urgent event scholarship"`
	IsActive      *bool      `json:"is_active"`
	PublishedDate *time.Time `json:"published_date"`
	ExpiryDate    *time.Time `json:"expiry_date"`
}

func (req announcementRequest) input() announcementstore.Input {
	in := announcementstore.Input{
		Title:      req.Title,
		Content:    req.Content,
		Category:   models.AnnouncementCategory(req.Category),
		IsActive:   true,
		ExpiryDate: req.ExpiryDate,
	}
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
	}
	if req.PublishedDate != nil {
		in.PublishedDate = *req.PublishedDate
	}
	return in
}

// ListLive serves GET /api/announcements: active and unexpired, newest first.
func (h *Handler) ListLive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Store.ListActive(ctx, time.Now())
	if err != nil {
		respond.Internal(w, r, h.Log, "list live announcements failed", err)
		return
	}
	respond.OK(w, items)
}

// List serves the admin list, including inactive and expired announcements.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Store.List(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list announcements failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Store.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	respond.OK(w, a)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Store.Create(ctx, req.input())
	if errors.Is(err, announcementstore.ErrInvalidCategory) {
		respond.BadRequest(w, err)
		return
	}
	if err != nil {
		respond.Internal(w, r, h.Log, "create announcement failed", err)
		return
	}
	h.Audit.ContentCreated(ctx, r, entity, a.ID.Hex())
	respond.Created(w, a)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req announcementRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Store.Update(ctx, id, req.input())
	if errors.Is(err, announcementstore.ErrInvalidCategory) {
		respond.BadRequest(w, err)
		return
	}
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, a)
}

// Toggle flips is_active and returns the updated announcement.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Store.Toggle(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, a)
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
