package auditlog_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/auditlog"
	"github.com/dalemusser/consultancy/internal/app/store/audit"
	"github.com/dalemusser/consultancy/internal/app/system/paging"
	"github.com/dalemusser/consultancy/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type listBody struct {
	Events []audit.Event `json:"events"`
	Total  int64         `json:"total"`
	Range  paging.Range  `json:"range"`
}

func TestServeList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := audit.New(db)
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	seed := []audit.Event{
		{Timestamp: day, Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
		{Timestamp: day.Add(time.Hour), Category: audit.CategoryAdmin, EventType: audit.EventContentCreated, Entity: "gallery", Success: true},
		{Timestamp: day.Add(48 * time.Hour), Category: audit.CategoryAdmin, EventType: audit.EventContentDeleted, Entity: "team", Success: true},
	}
	for _, ev := range seed {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	router := chi.NewRouter()
	router.Route("/admin/audit", auditlog.NewHandler(db, zap.NewNop()).MountAdmin)

	tests := []struct {
		name  string
		query string
		want  int64
	}{
		{"all", "", 3},
		{"category", "?category=admin", 2},
		{"entity", "?entity=team", 1},
		{"end date covers the whole day", "?end_date=2026-03-10", 2},
		{"start date", "?start_date=2026-03-11", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/audit"+tt.query, nil))
			testutil.AssertStatus(t, rec, http.StatusOK)
			var body listBody
			testutil.DecodeJSON(t, rec, &body)
			if body.Total != tt.want || int64(len(body.Events)) != tt.want {
				t.Errorf("total=%d events=%d, want %d", body.Total, len(body.Events), tt.want)
			}
		})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/audit?start=2", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var body listBody
	testutil.DecodeJSON(t, rec, &body)
	if len(body.Events) != 2 || body.Range.Start != 2 || body.Range.End != 3 {
		t.Errorf("second page = %d events, range %+v", len(body.Events), body.Range)
	}
	if body.Events[0].EventType != audit.EventContentCreated {
		t.Errorf("newest-first order broken: %s", body.Events[0].EventType)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/audit?start_date=March", nil))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}
