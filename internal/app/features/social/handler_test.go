package social_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/consultancy/internal/app/features/social"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"go.uber.org/zap"
)

func TestCreateAndFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := social.NewHandler(db, nil, zap.NewNop())

	for _, body := range []map[string]any{
		{"platform": "instagram", "post_url": "https://instagram.com/p/1"},
		{"platform": "youtube", "post_url": "https://youtube.com/watch?v=1"},
	} {
		rec := httptest.NewRecorder()
		h.Create(rec, testutil.AsAdmin(testutil.JSONRequest(t, http.MethodPost, "/admin/social", body)))
		testutil.AssertStatus(t, rec, http.StatusCreated)
	}

	rec := httptest.NewRecorder()
	h.Create(rec, testutil.AsAdmin(testutil.JSONRequest(t, http.MethodPost, "/admin/social", map[string]any{
		"platform": "orkut", "post_url": "https://orkut.com/1",
	})))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = httptest.NewRecorder()
	h.ListActive(rec, httptest.NewRequest(http.MethodGet, "/api/social?platform=youtube", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got []models.SocialPost
	testutil.DecodeJSON(t, rec, &got)
	if len(got) != 1 || got[0].Platform != models.PlatformYouTube {
		t.Errorf("youtube posts = %+v", got)
	}
}
