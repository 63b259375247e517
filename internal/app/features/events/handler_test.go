package events_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/events"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"go.uber.org/zap"
)

func TestCreate_EndBeforeStart(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := events.NewHandler(db, nil, zap.NewNop())

	start := time.Now().Add(time.Hour)
	rec := httptest.NewRecorder()
	h.Create(rec, testutil.AsAdmin(testutil.JSONRequest(t, http.MethodPost, "/admin/events", map[string]any{
		"title": "Fair", "start_at": start, "end_at": start.Add(-2 * time.Hour),
	})))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestListUpcoming_Limit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := events.NewHandler(db, nil, zap.NewNop())

	for i := 1; i <= 3; i++ {
		rec := httptest.NewRecorder()
		h.Create(rec, testutil.AsAdmin(testutil.JSONRequest(t, http.MethodPost, "/admin/events", map[string]any{
			"title": "Seminar", "start_at": time.Now().Add(time.Duration(i) * time.Hour),
		})))
		testutil.AssertStatus(t, rec, http.StatusCreated)
	}

	rec := httptest.NewRecorder()
	h.ListUpcoming(rec, httptest.NewRequest(http.MethodGet, "/api/events?limit=2", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got []models.CalendarEvent
	testutil.DecodeJSON(t, rec, &got)
	if len(got) != 2 {
		t.Errorf("got %d events, want 2", len(got))
	}

	rec = httptest.NewRecorder()
	h.ListUpcoming(rec, httptest.NewRequest(http.MethodGet, "/api/events?limit=abc", nil))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}
