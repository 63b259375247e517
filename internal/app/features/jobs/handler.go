// internal/app/features/jobs/handler.go
package jobs

import (
	"time"

	applicationstore "github.com/dalemusser/consultancy/internal/app/store/applications"
	jobstore "github.com/dalemusser/consultancy/internal/app/store/jobs"
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
	jobEntity = "job"
	appEntity = "job_application"
	cvPrefix  = filestore.PrefixCVs
)

// Handler serves the careers page and the admin jobs/applications screens.
type Handler struct {
	Jobs     *jobstore.Store
	Apps     *applicationstore.Store
	Files    storage.Store
	Audit    *auditlog.Logger
	Limit    *ratelimit.Limiter
	Log      *zap.Logger
	MaxBytes int64
}

func NewHandler(db *mongo.Database, files storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Jobs:     jobstore.New(db),
		Apps:     applicationstore.New(db),
		Files:    files,
		Audit:    audit,
		Limit:    ratelimit.New("job_application", 3, 10*time.Minute),
		Log:      logger,
		MaxBytes: upload.DefaultMaxBytes,
	}
}

func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.ListOpen)
	r.Get("/{id}", h.ShowOpen)
	r.With(h.Limit.Middleware).Post("/{id}/apply", h.Apply)
}

func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/applications", h.ListApplications)
	r.Get("/applications/{appID}", h.ShowApplication)
	r.Patch("/applications/{appID}", h.UpdateApplicationStatus)
	r.Delete("/applications/{appID}", h.RemoveApplication)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/toggle", h.Toggle)
	r.Delete("/{id}", h.Delete)
}
