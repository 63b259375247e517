// internal/app/features/popups/popups.go
package popups

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	popupstore "github.com/dalemusser/consultancy/internal/app/store/popups"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/saga"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.uber.org/zap"
)

type popupRequest struct {
	Title      string     `json:"title" validate:"required,max=200"`
	Content    string     `json:"content"`
	LinkURL    string     `json:"link_url" validate:"omitempty,url"`
	ButtonText string     `json:"button_text" validate:"max=60"`
	IsActive   bool       `json:"is_active"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
}

func (req popupRequest) model() models.Popup {
	return models.Popup{
		Title:      req.Title,
		Content:    req.Content,
		LinkURL:    req.LinkURL,
		ButtonText: req.ButtonText,
		IsActive:   req.IsActive,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
}

var errBadWindow = validate.Errors{"end_date": "must not be before start_date"}

// Active returns the popup to show now, or JSON null when there is none.
// A lookup failure is logged and also answered with null so the page
// still renders.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.Store.GetActive(ctx, time.Now())
	if err != nil {
		h.Log.Warn("active popup lookup failed", zap.Error(err))
	}
	// p is a nil *Popup when there is nothing to show; it encodes as null.
	respond.OK(w, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.List(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list popups failed", err)
		return
	}
	respond.OK(w, items)
}

// Create accepts a multipart form with an optional "image" file.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := upload.ParseForm(w, r, h.MaxBytes); err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}
	req := popupRequest{
		Title:      strings.TrimSpace(r.FormValue("title")),
		Content:    r.FormValue("content"),
		LinkURL:    strings.TrimSpace(r.FormValue("link_url")),
		ButtonText: strings.TrimSpace(r.FormValue("button_text")),
		IsActive:   shared.FormBool(r, "is_active", true),
	}
	var err error
	if req.StartDate, err = shared.FormTime(r, "start_date"); err != nil {
		respond.BadRequest(w, err)
		return
	}
	if req.EndDate, err = shared.FormTime(r, "end_date"); err != nil {
		respond.BadRequest(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	img, err := upload.Read(r, "image", upload.Image)
	if err != nil && !errors.Is(err, upload.ErrNoFile) {
		shared.UploadError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p := req.model()
	sg := saga.New("popups.create", h.Log)
	if img != nil {
		if p.ImageKey, p.ImageURL, err = upload.Put(ctx, h.Files, sg, prefix, img); err != nil {
			respond.Internal(w, r, h.Log, "store popup image failed", err)
			return
		}
	}
	p, err = h.Store.Create(ctx, p)
	if err != nil {
		err = sg.Fail(ctx, err)
		if errors.Is(err, popupstore.ErrBadWindow) {
			respond.BadRequest(w, errBadWindow)
			return
		}
		respond.Internal(w, r, h.Log, "create popup failed", err)
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
	var req popupRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.Store.Update(ctx, id, req.model())
	if errors.Is(err, popupstore.ErrBadWindow) {
		respond.BadRequest(w, errBadWindow)
		return
	}
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, p)
}

func (h *Handler) SetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	if err := upload.ParseForm(w, r, h.MaxBytes); err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}
	f, err := upload.Read(r, "image", upload.Image)
	if err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	_, _, err = shared.ReplaceFile(ctx, h.Files, h.Log, "popups.image", prefix, f,
		func(ctx context.Context, key, url string) (string, error) {
			prev, err := h.Store.SetImage(ctx, id, key, url)
			return prev.ImageKey, err
		})
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	p, err := h.Store.GetByID(ctx, id)
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
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	p, err := h.Store.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	if err := shared.RemoveFiles(ctx, h.Files, p.ImageKey); err != nil {
		respond.Internal(w, r, h.Log, "delete popup image failed", err, zap.String("id", id.Hex()))
		return
	}
	if err := h.Store.Delete(ctx, id); err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentDeleted(ctx, r, entity, id.Hex())
	respond.NoContent(w)
}
