// internal/app/features/popups/handler.go
package popups

import (
	popupstore "github.com/dalemusser/consultancy/internal/app/store/popups"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/filestore"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	entity = "popup"
	prefix = filestore.PrefixPopups
)

type Handler struct {
	Store    *popupstore.Store
	Files    storage.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
	MaxBytes int64
}

func NewHandler(db *mongo.Database, files storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    popupstore.New(db),
		Files:    files,
		Audit:    audit,
		Log:      logger,
		MaxBytes: upload.DefaultMaxBytes,
	}
}

// MountPublic serves the single active popup at GET /api/popup.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.Active)
}

func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/image", h.SetImage)
	r.Post("/{id}/toggle", h.Toggle)
	r.Delete("/{id}", h.Delete)
}
