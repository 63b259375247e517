// internal/app/features/testimonials/testimonials.go
package testimonials

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	testimonialstore "github.com/dalemusser/consultancy/internal/app/store/testimonials"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.uber.org/zap"
)

type testimonialRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Destination string `json:"destination" validate:"max=120"`
	University  string `json:"university" validate:"max=200"`
	Content     string `json:"content" validate:"required,max=2000"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	IsApproved  bool   `json:"is_approved"`
}

func (req testimonialRequest) model() models.Testimonial {
	return models.Testimonial{
		Name:        req.Name,
		Destination: req.Destination,
		University:  req.University,
		Content:     req.Content,
		Rating:      req.Rating,
		IsApproved:  req.IsApproved,
	}
}

type approveRequest struct {
	Approved bool `json:"approved"`
}

func (h *Handler) ListApproved(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.ListApproved(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list testimonials failed", err)
		return
	}
	respond.OK(w, items)
}

// Submit stores a visitor's testimonial for moderation. is_approved in the
// body is ignored.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req testimonialRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	t, err := h.Store.Submit(ctx, req.model())
	if errors.Is(err, testimonialstore.ErrInvalidRating) {
		respond.BadRequest(w, err)
		return
	}
	if err != nil {
		respond.Internal(w, r, h.Log, "submit testimonial failed", err)
		return
	}
	respond.Created(w, t)
}

// List serves GET /admin/testimonials?pending=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	pending, _ := strconv.ParseBool(r.URL.Query().Get("pending"))
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.List(ctx, pending)
	if err != nil {
		respond.Internal(w, r, h.Log, "list testimonials failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req testimonialRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	t, err := h.Store.Create(ctx, req.model())
	if errors.Is(err, testimonialstore.ErrInvalidRating) {
		respond.BadRequest(w, err)
		return
	}
	if err != nil {
		respond.Internal(w, r, h.Log, "create testimonial failed", err)
		return
	}
	h.Audit.ContentCreated(ctx, r, entity, t.ID.Hex())
	respond.Created(w, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req testimonialRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	t, err := h.Store.Update(ctx, id, req.model())
	if errors.Is(err, testimonialstore.ErrInvalidRating) {
		respond.BadRequest(w, err)
		return
	}
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, t)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req approveRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	t, err := h.Store.SetApproved(ctx, id, req.Approved)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	status := "withdrawn"
	if t.IsApproved {
		status = "approved"
	}
	h.Audit.StatusChanged(ctx, r, entity, id.Hex(), status)
	respond.OK(w, t)
}

func (h *Handler) SetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	if err := upload.ParseForm(w, r, h.MaxBytes); err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}
	f, err := upload.Read(r, "photo", upload.Image)
	if err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	_, _, err = shared.ReplaceFile(ctx, h.Files, h.Log, "testimonials.photo", prefix, f,
		func(ctx context.Context, key, url string) (string, error) {
			prev, err := h.Store.SetPhoto(ctx, id, key, url)
			return prev.PhotoKey, err
		})
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	t, err := h.Store.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, t)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	t, err := h.Store.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	if err := shared.RemoveFiles(ctx, h.Files, t.PhotoKey); err != nil {
		respond.Internal(w, r, h.Log, "delete testimonial photo failed", err, zap.String("id", id.Hex()))
		return
	}
	if err := h.Store.Delete(ctx, id); err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentDeleted(ctx, r, entity, id.Hex())
	respond.NoContent(w)
}
