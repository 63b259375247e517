// internal/app/features/gallery/handler.go
package gallery

import (
	gallerystore "github.com/dalemusser/consultancy/internal/app/store/gallery"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/filestore"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	entity = "gallery_image"
	prefix = filestore.PrefixGallery
)

type Handler struct {
	Store    *gallerystore.Store
	Files    storage.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
	MaxBytes int64
}

func NewHandler(db *mongo.Database, files storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    gallerystore.New(db),
		Files:    files,
		Audit:    audit,
		Log:      logger,
		MaxBytes: upload.DefaultMaxBytes,
	}
}

func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/categories", h.Categories)
}

func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Upload)
	r.Put("/{id}", h.UpdateMeta)
	r.Delete("/{id}", h.Delete)
}
