package applicationstore_test

import (
	"errors"
	"testing"

	applicationstore "github.com/dalemusser/consultancy/internal/app/store/applications"
	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateListStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := applicationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	jobA, jobB := primitive.NewObjectID(), primitive.NewObjectID()
	a1, err := store.Create(ctx, models.JobApplication{JobID: jobA, Name: "A1", Email: "a1@example.com", CVKey: "cvs/a1.pdf"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a1.Status != models.ApplicationReceived {
		t.Errorf("Status: got %q, want received", a1.Status)
	}
	if _, err := store.Create(ctx, models.JobApplication{JobID: jobA, Name: "A2", Email: "a2@example.com", CVKey: "cvs/a2.pdf"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.JobApplication{JobID: jobB, Name: "B1", Email: "b1@example.com", CVKey: "cvs/b1.pdf"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	forA, err := store.List(ctx, jobA, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(forA) != 2 {
		t.Errorf("job A: got %d, want 2", len(forA))
	}

	if _, err := store.UpdateStatus(ctx, a1.ID, models.ApplicationShortlisted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := store.UpdateStatus(ctx, a1.ID, "ghosted"); !errors.Is(err, applicationstore.ErrInvalidStatus) {
		t.Errorf("invalid status err = %v", err)
	}
	short, err := store.List(ctx, primitive.NilObjectID, models.ApplicationShortlisted)
	if err != nil {
		t.Fatalf("List shortlisted: %v", err)
	}
	if len(short) != 1 || short[0].ID != a1.ID {
		t.Errorf("shortlisted = %+v", short)
	}

	counts, err := store.CountByJob(ctx)
	if err != nil {
		t.Fatalf("CountByJob: %v", err)
	}
	if counts[jobA] != 2 || counts[jobB] != 1 {
		t.Errorf("counts = %v", counts)
	}

	if err := store.Delete(ctx, a1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, a1.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Delete twice err = %v", err)
	}
}
