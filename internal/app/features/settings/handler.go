// internal/app/features/settings/handler.go
package settings

import (
	settingsstore "github.com/dalemusser/consultancy/internal/app/store/settings"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the public and admin site settings endpoints.
type Handler struct {
	Store    *settingsstore.Store
	Files    storage.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
	MaxBytes int64
}

// NewHandler constructs a Handler bound to the given Mongo database, file storage, and logger.
func NewHandler(db *mongo.Database, files storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    settingsstore.New(db),
		Files:    files,
		Audit:    audit,
		Log:      logger,
		MaxBytes: upload.DefaultMaxBytes,
	}
}
