// internal/app/features/team/handler.go
package team

import (
	"context"
	"net/http"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	teamstore "github.com/dalemusser/consultancy/internal/app/store/team"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/filestore"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	entity = "team_member"
	prefix = filestore.PrefixTeam
)

type Handler struct {
	Store    *teamstore.Store
	Files    storage.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
	MaxBytes int64
}

func NewHandler(db *mongo.Database, files storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    teamstore.New(db),
		Files:    files,
		Audit:    audit,
		Log:      logger,
		MaxBytes: upload.DefaultMaxBytes,
	}
}

func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.ListActive)
}

func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/photo", h.SetPhoto)
	r.Delete("/{id}", h.Delete)
}

type memberRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Position  string `json:"position" validate:"required,max=120"`
	Bio       string `json:"bio" validate:"max=4000"`
	Email     string `json:"email" validate:"omitempty,email"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

func (req memberRequest) model() models.TeamMember {
	m := models.TeamMember{
		Name:      req.Name,
		Position:  req.Position,
		Bio:       req.Bio,
		Email:     req.Email,
		SortOrder: req.SortOrder,
		IsActive:  true,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	return m
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.ListActive(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list team failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Store.List(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list team failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	m, err := h.Store.Create(ctx, req.model())
	if err != nil {
		respond.Internal(w, r, h.Log, "create team member failed", err)
		return
	}
	h.Audit.ContentCreated(ctx, r, entity, m.ID.Hex())
	respond.Created(w, m)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req memberRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	m, err := h.Store.Update(ctx, id, req.model())
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, m)
}

// SetPhoto replaces the member's photo with the multipart "photo" field.
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
	_, _, err = shared.ReplaceFile(ctx, h.Files, h.Log, "team.photo", prefix, f,
		func(ctx context.Context, key, url string) (string, error) {
			prev, err := h.Store.SetPhoto(ctx, id, key, url)
			return prev.PhotoKey, err
		})
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	m, err := h.Store.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, entity, id.Hex())
	respond.OK(w, m)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	m, err := h.Store.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	if err := shared.RemoveFiles(ctx, h.Files, m.PhotoKey); err != nil {
		respond.Internal(w, r, h.Log, "delete team photo failed", err, zap.String("id", id.Hex()))
		return
	}
	if err := h.Store.Delete(ctx, id); err != nil {
		shared.StoreError(w, r, h.Log, entity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentDeleted(ctx, r, entity, id.Hex())
	respond.NoContent(w)
}
