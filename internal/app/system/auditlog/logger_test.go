package auditlog_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/consultancy/internal/app/store/audit"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/auth"
	"github.com/dalemusser/consultancy/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNilLogger_IsNoop(t *testing.T) {
	var l *auditlog.Logger
	r := httptest.NewRequest("POST", "/admin/gallery", nil)
	l.ContentCreated(context.Background(), r, "gallery", "x") // must not panic
}

func TestLog_ModeLogOnlyWritesZap(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.ModeLog, Admin: auditlog.ModeOff})

	r := httptest.NewRequest("POST", "/auth/login", nil)
	l.LoginSuccess(context.Background(), r, primitive.NewObjectID(), "admin@example.com")
	l.ContentDeleted(context.Background(), r, "jobs", "1")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 zap entry (admin is off), got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["event_type"]; got != audit.EventLoginSuccess {
		t.Errorf("event_type = %v", got)
	}
}

func TestLog_WritesActorToDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	l := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeAll, Admin: auditlog.ModeDB})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := primitive.NewObjectID()
	r := httptest.NewRequest("DELETE", "/admin/chat/sessions/abc", nil)
	r = auth.WithTestUser(r, &auth.SessionUser{ID: actor.Hex(), Email: "admin@example.com", Role: "admin"})

	l.ChatDeleted(ctx, r, "abc", 4)

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ActorID == nil || *ev.ActorID != actor {
		t.Errorf("actor = %v", ev.ActorID)
	}
	if ev.EventType != audit.EventChatDeleted || ev.Details["messages_deleted"] != "4" {
		t.Errorf("unexpected event %+v", ev)
	}
}
