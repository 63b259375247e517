package chat_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/chat"
	chatstore "github.com/dalemusser/consultancy/internal/app/store/chat"
	"github.com/dalemusser/consultancy/internal/app/system/indexes"
	"github.com/dalemusser/consultancy/internal/app/system/realtime"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newService(t *testing.T) (*chat.Service, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	tracker := signals.NewTracker(signals.NewMemory(nil), signals.DefaultConfig(), nil)
	svc := chat.NewService(chatstore.New(db, zap.NewNop()), realtime.NewHub(0, zap.NewNop()), tracker, zap.NewNop())
	return svc, db
}

// next waits briefly for an event of kind on sub, skipping others.
func next(t *testing.T, sub *realtime.Subscription, kind string) realtime.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sub.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", kind)
		}
	}
}

func TestSendMessage_PublishesAndClearsTyping(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess, created, err := svc.StartSession(ctx, "visitor-1")
	if err != nil || !created {
		t.Fatalf("StartSession: created=%v err=%v", created, err)
	}
	sub := svc.Hub.Subscribe(sess.ID.Hex())
	defer sub.Close()

	if _, err := svc.SetTyping(ctx, sess.ID, signals.RoleVisitor, "Ram", true); err != nil {
		t.Fatalf("SetTyping: %v", err)
	}
	if ev := next(t, sub, realtime.KindTyping); !ev.Data.(signals.TypingState).IsTyping {
		t.Fatal("expected typing=true event")
	}

	msg, err := svc.SendMessage(ctx, sess.ID, "hello", "Ram", false)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	ev := next(t, sub, realtime.KindMessage)
	if got := ev.Data.(models.ChatMessage); got.ID != msg.ID {
		t.Errorf("message event id = %s, want %s", got.ID.Hex(), msg.ID.Hex())
	}
	if ev := next(t, sub, realtime.KindTyping); ev.Data.(signals.TypingState).IsTyping {
		t.Error("sending should clear typing")
	}
	ts, err := svc.Signals.Typing(ctx, sess.ID.Hex(), signals.RoleVisitor)
	if err != nil || ts.IsTyping {
		t.Errorf("Typing after send = %+v, %v", ts, err)
	}
}

func TestSendMessage_ClosedSession(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess, _, err := svc.StartSession(ctx, "visitor-2")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := svc.Close(ctx, sess.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := svc.SendMessage(ctx, sess.ID, "anyone there?", "Visitor", false); !errors.Is(err, chat.ErrSessionClosed) {
		t.Fatalf("visitor send to closed session err = %v, want ErrSessionClosed", err)
	}
	if _, err := svc.SendMessage(ctx, sess.ID, "we will follow up by email", "Support", true); err != nil {
		t.Fatalf("admin reply to closed session: %v", err)
	}
	got, err := svc.Store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != models.ChatClosed {
		t.Errorf("admin reply reopened session: status = %q", got.Status)
	}

	// a closed session does not block a new one for the same visitor
	fresh, created, err := svc.StartSession(ctx, "visitor-2")
	if err != nil || !created || fresh.ID == sess.ID {
		t.Errorf("StartSession after close = %s created=%v err=%v", fresh.ID.Hex(), created, err)
	}
}

func TestDelete_ClearsSignals(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess, _, err := svc.StartSession(ctx, "visitor-3")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := svc.SendMessage(ctx, sess.ID, "hi", "Visitor", false); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if _, err := svc.Heartbeat(ctx, sess.ID, signals.RoleVisitor, true); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	all := svc.Hub.SubscribeAll()
	defer all.Close()

	n, err := svc.Delete(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 1 {
		t.Errorf("messages deleted = %d, want 1", n)
	}
	next(t, all, realtime.KindSession)

	ps, err := svc.Signals.Presence(ctx, sess.ID.Hex(), signals.RoleVisitor)
	if err != nil || ps.Online {
		t.Errorf("presence after delete = %+v, %v", ps, err)
	}
}
