// internal/app/features/testimonials/handler.go
package testimonials

import (
	"time"

	testimonialstore "github.com/dalemusser/consultancy/internal/app/store/testimonials"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/filestore"
	"github.com/dalemusser/consultancy/internal/app/system/ratelimit"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	entity = "testimonial"
	prefix = filestore.PrefixTestimonials
)

type Handler struct {
	Store    *testimonialstore.Store
	Files    storage.Store
	Audit    *auditlog.Logger
	Limit    *ratelimit.Limiter
	Log      *zap.Logger
	MaxBytes int64
}

func NewHandler(db *mongo.Database, files storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    testimonialstore.New(db),
		Files:    files,
		Audit:    audit,
		Limit:    ratelimit.New("testimonial", 3, 5*time.Minute),
		Log:      logger,
		MaxBytes: upload.DefaultMaxBytes,
	}
}

func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.ListApproved)
	r.With(h.Limit.Middleware).Post("/", h.Submit)
}

func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/photo", h.SetPhoto)
	r.Delete("/{id}", h.Delete)
}
