package popupstore_test

import (
	"testing"
	"time"

	popupstore "github.com/dalemusser/consultancy/internal/app/store/popups"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
)

func TestStore_GetActive_None(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := popupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := store.GetActive(ctx, time.Now())
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil popup, got %+v", p)
	}
}

func TestStore_GetActive_Window(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := popupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	tomorrow := now.Add(24 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	for _, p := range []models.Popup{
		{Title: "future", IsActive: true, StartDate: &tomorrow},
		{Title: "ended", IsActive: true, EndDate: &yesterday},
		{Title: "off", IsActive: false},
	} {
		if _, err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s): %v", p.Title, err)
		}
	}
	if p, err := store.GetActive(ctx, now); err != nil || p != nil {
		t.Fatalf("GetActive = %+v, %v; want nil, nil", p, err)
	}

	showing, err := store.Create(ctx, models.Popup{Title: "now", IsActive: true, StartDate: &yesterday, EndDate: &tomorrow})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	p, err := store.GetActive(ctx, now)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if p == nil || p.ID != showing.ID {
		t.Fatalf("GetActive = %+v, want %s", p, showing.ID.Hex())
	}
	if !p.IsShowing(now) {
		t.Error("returned popup should be showing")
	}
}

func TestStore_Create_BadWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := popupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	start := time.Now()
	end := start.Add(-time.Hour)
	if _, err := store.Create(ctx, models.Popup{Title: "x", StartDate: &start, EndDate: &end}); err != popupstore.ErrBadWindow {
		t.Errorf("err = %v, want ErrBadWindow", err)
	}
}
