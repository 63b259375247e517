package dashboard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/consultancy/internal/app/features/dashboard"
	"github.com/dalemusser/consultancy/internal/app/store/audit"
	"github.com/dalemusser/consultancy/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func TestServeDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := audit.New(db).Log(ctx, audit.Event{
		Category: audit.CategoryAdmin, EventType: audit.EventContentCreated, Entity: "gallery", Success: true,
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	router := chi.NewRouter()
	router.Route("/admin/dashboard", dashboard.NewHandler(db, zap.NewNop()).MountAdmin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var body struct {
		Counts map[string]int64 `json:"counts"`
		Recent []audit.Event    `json:"recent"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if _, ok := body.Counts["consultations_pending"]; !ok {
		t.Errorf("counts missing consultations_pending: %+v", body.Counts)
	}
	if len(body.Recent) != 1 || body.Recent[0].Entity != "gallery" {
		t.Errorf("recent = %+v", body.Recent)
	}
}
