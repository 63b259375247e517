// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/audit"
	metricsstore "github.com/dalemusser/consultancy/internal/app/store/metrics"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// recentActivity is how many audit events the dashboard shows.
const recentActivity = 10

type Handler struct {
	DB    *mongo.Database
	Audit *audit.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Audit: audit.New(db),
		Log:   logger,
	}
}

type dashboardData struct {
	Counts metricsstore.Counts `json:"counts"`
	Recent []audit.Event       `json:"recent"`
}

// MountAdmin serves GET /admin/dashboard.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.ServeDashboard)
}

// ServeDashboard returns the inbox totals and the latest admin activity.
// Counters are best-effort; a failed count reads as zero.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := dashboardData{
		Counts: metricsstore.FetchDashboardCounts(ctx, h.DB, time.Now().UTC()),
		Recent: []audit.Event{},
	}
	recent, err := h.Audit.GetRecent(ctx, recentActivity)
	if err != nil {
		h.Log.Warn("dashboard: recent activity failed", zap.Error(err))
	} else if recent != nil {
		data.Recent = recent
	}

	respond.OK(w, data)
}
