// internal/app/features/announcements/handler.go
package announcements

import (
	announcementstore "github.com/dalemusser/consultancy/internal/app/store/announcements"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns all announcement handlers.
type Handler struct {
	Store *announcementstore.Store
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs an announcements Handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store: announcementstore.New(db),
		Audit: audit,
		Log:   logger,
	}
}
