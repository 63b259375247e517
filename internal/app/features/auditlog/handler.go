// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/consultancy/internal/app/store/audit"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Store *audit.Store
	Log   *zap.Logger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Store: audit.New(db),
		Log:   logger,
	}
}

// MountAdmin mounts the audit log under /admin/audit.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.ServeList)
}
