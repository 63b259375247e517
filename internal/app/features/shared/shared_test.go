package shared

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/consultancy/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestIDParam(t *testing.T) {
	id := primitive.NewObjectID()
	r := testutil.WithChiURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.Hex())
	rec := httptest.NewRecorder()
	got, ok := IDParam(rec, r)
	if !ok || got != id {
		t.Fatalf("IDParam = %v, %v", got, ok)
	}

	r = testutil.WithChiURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", "zzz")
	rec = httptest.NewRecorder()
	if _, ok := IDParam(rec, r); ok {
		t.Fatal("bad id accepted")
	}
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestStoreError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	rec := httptest.NewRecorder()
	StoreError(rec, r, zap.NewNop(), "branch", docstore.ErrNotFound)
	testutil.AssertStatus(t, rec, http.StatusNotFound)
	if !strings.Contains(rec.Body.String(), "branch not found") {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	StoreError(rec, r, zap.NewNop(), "branch", errors.New("boom"))
	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
}

func TestActorName(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if ActorName(r) != "" {
		t.Error("anonymous should have no actor name")
	}
	if got := ActorName(testutil.AsAdmin(r)); got != "Test Admin" {
		t.Errorf("ActorName = %q", got)
	}
}

func TestDeleteFiles_IgnoresMissing(t *testing.T) {
	fs := testutil.NewFiles("/files")
	ctx := context.Background()
	if err := fs.Put(ctx, "team/a.jpg", strings.NewReader("x"), &storage.PutOptions{ContentType: "image/jpeg"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	DeleteFiles(ctx, fs, zap.NewNop(), "team/a.jpg", "", "team/missing.jpg")
	if ok, _ := fs.Exists(ctx, "team/a.jpg"); ok {
		t.Error("file not deleted")
	}
}

func TestRemoveFiles(t *testing.T) {
	ctx := context.Background()
	fs := testutil.NewFiles("http://files")
	fs.Put(ctx, "gallery/a.png", strings.NewReader("a"), &storage.PutOptions{ContentType: "image/png"})

	if err := RemoveFiles(ctx, fs, "gallery/a.png", "gallery/missing.png", ""); err != nil {
		t.Fatalf("RemoveFiles: %v", err)
	}
	if ok, _ := fs.Exists(ctx, "gallery/a.png"); ok {
		t.Error("file still present")
	}

	fs.Put(ctx, "gallery/b.png", strings.NewReader("b"), &storage.PutOptions{ContentType: "image/png"})
	fs.FailDelete(errors.New("bucket offline"))
	if err := RemoveFiles(ctx, fs, "gallery/b.png"); err == nil {
		t.Error("expected error when storage delete fails")
	}
}

func TestFormValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/?active=on&hidden=false&order=3&bad=x", nil)
	if !FormBool(r, "active", false) {
		t.Error("active = false")
	}
	if FormBool(r, "hidden", true) {
		t.Error("hidden = true")
	}
	if !FormBool(r, "missing", true) {
		t.Error("missing should use default")
	}
	if n, err := FormInt(r, "order"); err != nil || n != 3 {
		t.Errorf("order = %d, %v", n, err)
	}
	if _, err := FormInt(r, "bad"); err == nil {
		t.Error("bad int accepted")
	}
}

func TestReplaceFile(t *testing.T) {
	ctx := context.Background()
	fs := testutil.NewFiles("http://files")
	fs.Put(ctx, "team/old.png", strings.NewReader("old"), &storage.PutOptions{ContentType: "image/png"})
	f := &upload.File{Name: "new.png", ContentType: "image/png", Data: []byte("new")}

	key, url, err := ReplaceFile(ctx, fs, zap.NewNop(), "team.photo", "team", f,
		func(ctx context.Context, key, url string) (string, error) { return "team/old.png", nil })
	if err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	if url != fs.URL(key) {
		t.Errorf("url = %q", url)
	}
	keys := fs.Keys()
	if len(keys) != 1 || keys[0] != key {
		t.Errorf("keys = %v, want only %s", keys, key)
	}

	_, _, err = ReplaceFile(ctx, fs, zap.NewNop(), "team.photo", "team", f,
		func(ctx context.Context, key, url string) (string, error) { return "", docstore.ErrNotFound })
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if keys := fs.Keys(); len(keys) != 1 || keys[0] != key {
		t.Errorf("new file not compensated: %v", keys)
	}
}
