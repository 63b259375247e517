package userstore_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	userstore "github.com/dalemusser/consultancy/internal/app/store/users"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_Admin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, " Office Admin ", "Admin@Example.COM", "correct-horse")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.Email != "admin@example.com" {
		t.Errorf("Email: got %q", u.Email)
	}
	if u.FullName != "Office Admin" {
		t.Errorf("FullName: got %q", u.FullName)
	}
	if u.Role != models.RoleAdmin || u.Status != models.StatusActive {
		t.Errorf("Role/Status: got %q/%q", u.Role, u.Status)
	}
	if u.PasswordHash == "" || u.PasswordHash == "correct-horse" {
		t.Error("password must be stored hashed")
	}

	got, err := store.GetByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByEmail returned %s, want %s", got.ID.Hex(), u.ID.Hex())
	}
}

func TestStore_Create_ShortPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, "A", "a@example.com", "short"); err == nil {
		t.Error("expected error for short password")
	}
}

func TestStore_Authenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, "A", "a@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Authenticate(ctx, "A@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.LastLoginAt == nil {
		t.Error("LastLoginAt should be set")
	}

	if _, err := store.Authenticate(ctx, "a@example.com", "wrong-password"); !errors.Is(err, userstore.ErrBadCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := store.Authenticate(ctx, "nobody@example.com", "whatever1"); !errors.Is(err, userstore.ErrBadCredentials) {
		t.Errorf("unknown email err = %v", err)
	}

	if err := store.SetStatus(ctx, u.ID, models.StatusDisabled); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := store.Authenticate(ctx, "a@example.com", "correct-horse"); !errors.Is(err, userstore.ErrDisabled) {
		t.Errorf("disabled err = %v", err)
	}
}

func TestStore_EnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.EnsureAdmin(ctx, "Boot", "boot@example.com", "first-password")
	if err != nil || !created {
		t.Fatalf("first EnsureAdmin = %v, %v", created, err)
	}
	created, err = store.EnsureAdmin(ctx, "Boot", "boot@example.com", "other-password")
	if err != nil || created {
		t.Fatalf("second EnsureAdmin = %v, %v", created, err)
	}
	if _, err := store.Authenticate(ctx, "boot@example.com", "first-password"); err != nil {
		t.Errorf("original password should still work: %v", err)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fetcher := userstore.NewFetcher(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, "Fetch Me", "fetch@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	su := fetcher.FetchUser(ctx, u.ID.Hex())
	if su == nil || su.Name != "Fetch Me" || !su.IsAdmin() {
		t.Fatalf("FetchUser = %+v", su)
	}
	if fetcher.FetchUser(ctx, "not-an-id") != nil {
		t.Error("bad id should return nil")
	}

	if err := store.SetStatus(ctx, u.ID, models.StatusDisabled); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if fetcher.FetchUser(ctx, u.ID.Hex()) != nil {
		t.Error("disabled user should return nil")
	}
	if err := store.SetPassword(ctx, u.ID, "another-password"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
}

func TestStore_SetPassword_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, "A", "x@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.SetStatus(ctx, u.ID, models.StatusActive); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := store.SetPassword(ctx, primitive.NewObjectID(), "another-password"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("SetPassword missing err = %v", err)
	}
}
