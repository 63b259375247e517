package team_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/consultancy/internal/app/features/team"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func photoRequest(t *testing.T, id string) *http.Request {
	req := testutil.MultipartRequest(t, http.MethodPost, "/admin/team/"+id+"/photo", nil,
		testutil.FormFile{Field: "photo", Name: "me.png", Data: testutil.PNG(t, 20, 20)})
	return testutil.AsAdmin(testutil.WithChiURLParams(req, "id", id))
}

func TestPhotoReplaceRemovesOldFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fs := testutil.NewFiles("http://files.test")
	h := team.NewHandler(db, fs, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, testutil.AsAdmin(testutil.JSONRequest(t, http.MethodPost, "/admin/team", map[string]any{
		"name": "Ram", "position": "Counsellor",
	})))
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var m models.TeamMember
	testutil.DecodeJSON(t, rec, &m)

	rec = httptest.NewRecorder()
	h.SetPhoto(rec, photoRequest(t, m.ID.Hex()))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var first models.TeamMember
	testutil.DecodeJSON(t, rec, &first)

	rec = httptest.NewRecorder()
	h.SetPhoto(rec, photoRequest(t, m.ID.Hex()))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var second models.TeamMember
	testutil.DecodeJSON(t, rec, &second)

	keys := fs.Keys()
	if len(keys) != 1 || keys[0] != second.PhotoKey || second.PhotoKey == first.PhotoKey {
		t.Errorf("keys = %v, first %s, second %s", keys, first.PhotoKey, second.PhotoKey)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, testutil.AsAdmin(testutil.WithChiURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), "id", m.ID.Hex())))
	testutil.AssertStatus(t, rec, http.StatusNoContent)
	if len(fs.Keys()) != 0 {
		t.Errorf("photo left after delete: %v", fs.Keys())
	}
}

func TestPhotoForUnknownMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fs := testutil.NewFiles("http://files.test")
	h := team.NewHandler(db, fs, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.SetPhoto(rec, photoRequest(t, primitive.NewObjectID().Hex()))
	testutil.AssertStatus(t, rec, http.StatusNotFound)
	if len(fs.Keys()) != 0 {
		t.Errorf("uploaded photo not compensated: %v", fs.Keys())
	}
}
