// internal/app/features/gallery/gallery.go
package gallery

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/saga"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.uber.org/zap"
)

type metaRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category" validate:"max=60"`
	SortOrder   int    `json:"sort_order"`
}

// List serves GET /api/gallery?category=campus.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.List(ctx, strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		respond.Internal(w, r, h.Log, "list gallery failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	cats, err := h.Store.Categories(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list gallery categories failed", err)
		return
	}
	respond.OK(w, cats)
}

// Upload stores the image, a thumbnail and the record. Any failure removes
// whatever was already written.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := upload.ParseForm(w, r, h.MaxBytes); err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}
	meta := metaRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Category:    strings.TrimSpace(r.FormValue("category")),
	}
	order, err := shared.FormInt(r, "sort_order")
	if err != nil {
		respond.BadRequest(w, err)
		return
	}
	meta.SortOrder = order
	if err := validate.Struct(meta); err != nil {
		respond.BadRequest(w, err)
		return
	}
	img, err := upload.Read(r, "image", upload.Image)
	if err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}
	thumb, err := upload.Thumbnail(img, upload.ThumbnailWidth)
	if err != nil {
		respond.BadRequest(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sg := saga.New("gallery.upload", h.Log)
	imgKey, imgURL, err := upload.Put(ctx, h.Files, sg, prefix, img)
	if err != nil {
		respond.Internal(w, r, h.Log, "store gallery image failed", err)
		return
	}
	thumbKey, thumbURL, err := upload.Put(ctx, h.Files, sg, prefix+"/thumbs", thumb)
	if err != nil {
		respond.Internal(w, r, h.Log, "store gallery thumbnail failed", sg.Fail(ctx, err))
		return
	}
	g, err := h.Store.Create(ctx, models.GalleryImage{
		Title:        meta.Title,
		Description:  meta.Description,
		Category:     meta.Category,
		SortOrder:    meta.SortOrder,
		ImageKey:     imgKey,
		ImageURL:     imgURL,
		ThumbnailKey: thumbKey,
		ThumbnailURL: thumbURL,
	})
	if err != nil {
		respond.Internal(w, r, h.Log, "create gallery record failed", sg.Fail(ctx, err))
		return
	}
	h.Audit.ContentCreated(ctx, r, entity, g.ID.Hex())
	respond.Created(w, g)
}

func (h *Handler) UpdateMeta(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req metaRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	g, err := h.Store.UpdateMeta(ctx, id, models.GalleryImage{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, g)
}

// Delete removes the files first. If storage fails the record is kept so
// the files are never orphaned without a pointer to them.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	g, err := h.Store.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	if err := shared.RemoveFiles(ctx, h.Files, g.ImageKey, g.ThumbnailKey); err != nil {
		respond.Internal(w, r, h.Log, "delete gallery files failed", err, zap.String("id", id.Hex()))
		return
	}
	if err := h.Store.Delete(ctx, id); err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentDeleted(ctx, r, entity, id.Hex())
	respond.NoContent(w)
}
