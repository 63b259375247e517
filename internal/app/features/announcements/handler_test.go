package announcements_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/announcements"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *announcements.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return announcements.NewHandler(db, nil, zap.NewNop())
}

func create(t *testing.T, h *announcements.Handler, body map[string]any) models.Announcement {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Create(rec, testutil.AsAdmin(testutil.JSONRequest(t, http.MethodPost, "/admin/announcements", body)))
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var a models.Announcement
	testutil.DecodeJSON(t, rec, &a)
	return a
}

func TestCreate_AndListLive(t *testing.T) {
	h := newHandler(t)
	past := time.Now().Add(-time.Hour)

	live := create(t, h, map[string]any{"title": "Intake open", "content": "<p>Apply</p>", "category": "event"})
	create(t, h, map[string]any{"title": "Old", "content": "x", "expiry_date": past})
	create(t, h, map[string]any{"title": "Draft", "content": "x", "is_active": false})

	rec := httptest.NewRecorder()
	h.ListLive(rec, httptest.NewRequest(http.MethodGet, "/api/announcements", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var got []models.Announcement
	testutil.DecodeJSON(t, rec, &got)
	if len(got) != 1 || got[0].ID != live.ID {
		t.Fatalf("live = %+v", got)
	}
	if got[0].Category != models.CategoryEvent {
		t.Errorf("Category = %q", got[0].Category)
	}

	rec = httptest.NewRecorder()
	h.List(rec, testutil.AsAdmin(httptest.NewRequest(http.MethodGet, "/admin/announcements", nil)))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var all []models.Announcement
	testutil.DecodeJSON(t, rec, &all)
	if len(all) != 3 {
		t.Errorf("admin list: got %d, want 3", len(all))
	}
}

func TestCreate_Validation(t *testing.T) {
	h := newHandler(t)
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"content": "x"}},
		{"bad category", map[string]any{"title": "t", "content": "x", "category": "gossip"}},
		{"unknown field", map[string]any{"title": "t", "content": "x", "pinned": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, testutil.AsAdmin(testutil.JSONRequest(t, http.MethodPost, "/admin/announcements", tt.body)))
			testutil.AssertStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestToggleUpdateDelete(t *testing.T) {
	h := newHandler(t)
	a := create(t, h, map[string]any{"title": "T", "content": "C"})

	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParams(testutil.AsAdmin(httptest.NewRequest(http.MethodPost, "/", nil)), "id", a.ID.Hex())
	h.Toggle(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var toggled models.Announcement
	testutil.DecodeJSON(t, rec, &toggled)
	if toggled.IsActive {
		t.Error("toggle should deactivate")
	}

	rec = httptest.NewRecorder()
	req = testutil.JSONRequest(t, http.MethodPut, "/", map[string]any{"title": "T2", "content": "C2", "category": "urgent"})
	h.Update(rec, testutil.WithChiURLParams(testutil.AsAdmin(req), "id", a.ID.Hex()))
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	h.Delete(rec, testutil.WithChiURLParams(testutil.AsAdmin(httptest.NewRequest(http.MethodDelete, "/", nil)), "id", a.ID.Hex()))
	testutil.AssertStatus(t, rec, http.StatusNoContent)

	rec = httptest.NewRecorder()
	h.Delete(rec, testutil.WithChiURLParams(testutil.AsAdmin(httptest.NewRequest(http.MethodDelete, "/", nil)), "id", a.ID.Hex()))
	testutil.AssertStatus(t, rec, http.StatusNotFound)

	rec = httptest.NewRecorder()
	h.Show(rec, testutil.WithChiURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", primitive.NewObjectID().Hex()))
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}
