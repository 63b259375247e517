package gallery_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/consultancy/internal/app/features/gallery"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*gallery.Handler, *testutil.Files) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fs := testutil.NewFiles("http://files.test")
	return gallery.NewHandler(db, fs, nil, zap.NewNop()), fs
}

func uploadImage(t *testing.T, h *gallery.Handler, title, category string) models.GalleryImage {
	t.Helper()
	req := testutil.MultipartRequest(t, http.MethodPost, "/admin/gallery",
		map[string]string{"title": title, "category": category},
		testutil.FormFile{Field: "image", Name: "campus.png", Data: testutil.PNG(t, 800, 400)})
	rec := httptest.NewRecorder()
	h.Upload(rec, testutil.AsAdmin(req))
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var g models.GalleryImage
	testutil.DecodeJSON(t, rec, &g)
	return g
}

func TestUpload_StoresImageAndThumbnail(t *testing.T) {
	h, fs := newHandler(t)
	g := uploadImage(t, h, "Campus tour", "campus")

	if g.ImageKey == "" || g.ThumbnailKey == "" || g.ImageKey == g.ThumbnailKey {
		t.Fatalf("keys = %q, %q", g.ImageKey, g.ThumbnailKey)
	}
	if got := len(fs.Keys()); got != 2 {
		t.Errorf("stored files = %d, want 2", got)
	}
	if g.ImageURL != "http://files.test/"+g.ImageKey {
		t.Errorf("ImageURL = %q", g.ImageURL)
	}
}

func TestUpload_RejectsNonImage(t *testing.T) {
	h, fs := newHandler(t)
	req := testutil.MultipartRequest(t, http.MethodPost, "/admin/gallery",
		map[string]string{"title": "Not an image"},
		testutil.FormFile{Field: "image", Name: "notes.pdf", Data: testutil.PDF()})
	rec := httptest.NewRecorder()
	h.Upload(rec, testutil.AsAdmin(req))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if len(fs.Keys()) != 0 {
		t.Errorf("files left behind: %v", fs.Keys())
	}
}

func TestUpload_StorageFailureLeavesNothing(t *testing.T) {
	h, fs := newHandler(t)
	fs.FailPut(errors.New("disk full"))
	req := testutil.MultipartRequest(t, http.MethodPost, "/admin/gallery",
		map[string]string{"title": "x"},
		testutil.FormFile{Field: "image", Name: "a.png", Data: testutil.PNG(t, 10, 10)})
	rec := httptest.NewRecorder()
	h.Upload(rec, testutil.AsAdmin(req))
	testutil.AssertStatus(t, rec, http.StatusInternalServerError)

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/gallery", nil))
	var list []models.GalleryImage
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("records = %d, want 0", len(list))
	}
}

func TestListByCategoryAndDelete(t *testing.T) {
	h, fs := newHandler(t)
	a := uploadImage(t, h, "Campus", "campus")
	uploadImage(t, h, "Visa day", "events")

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/gallery?category=campus", nil))
	var list []models.GalleryImage
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("campus list = %+v", list)
	}

	rec = httptest.NewRecorder()
	h.Categories(rec, httptest.NewRequest(http.MethodGet, "/api/gallery/categories", nil))
	var cats []string
	testutil.DecodeJSON(t, rec, &cats)
	if len(cats) != 2 {
		t.Errorf("categories = %v", cats)
	}

	// Storage failure keeps the record.
	fs.FailDelete(errors.New("bucket offline"))
	rec = httptest.NewRecorder()
	h.Delete(rec, testutil.AsAdmin(testutil.WithChiURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), "id", a.ID.Hex())))
	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
	if _, err := h.Store.GetByID(t.Context(), a.ID); err != nil {
		t.Fatalf("record removed despite storage failure: %v", err)
	}

	fs.FailDelete(nil)
	rec = httptest.NewRecorder()
	h.Delete(rec, testutil.AsAdmin(testutil.WithChiURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), "id", a.ID.Hex())))
	testutil.AssertStatus(t, rec, http.StatusNoContent)
	for _, k := range fs.Keys() {
		if k == a.ImageKey || k == a.ThumbnailKey {
			t.Errorf("file %s still stored", k)
		}
	}
}
