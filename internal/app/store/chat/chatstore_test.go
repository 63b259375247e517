package chatstore_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	chatstore "github.com/dalemusser/consultancy/internal/app/store/chat"
	"github.com/dalemusser/consultancy/internal/app/store/docstore"
	"github.com/dalemusser/consultancy/internal/app/system/indexes"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*chatstore.Store, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return chatstore.New(db, zap.NewNop()), db
}

func TestGetOrCreateSession_SameVisitorSameSession(t *testing.T) {
	store, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, created, err := store.GetOrCreateSession(ctx, "visitor-1")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	if !created {
		t.Error("first call should create")
	}
	if first.Status != models.ChatActive || first.VisitorID != "visitor-1" {
		t.Errorf("session = %+v", first)
	}
	if first.LastMessageAt.IsZero() {
		t.Error("last_message_at should be set on create")
	}

	second, created, err := store.GetOrCreateSession(ctx, "visitor-1")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	if created || second.ID != first.ID {
		t.Errorf("second call: created=%v id=%s, want existing %s", created, second.ID.Hex(), first.ID.Hex())
	}

	if _, _, err := store.GetOrCreateSession(ctx, "  "); !errors.Is(err, chatstore.ErrEmptyVisitorID) {
		t.Errorf("blank visitor err = %v", err)
	}
}

func TestGetOrCreateSession_ConcurrentFirstContact(t *testing.T) {
	store, db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	const n = 10
	ids := make([]primitive.ObjectID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, _, err := store.GetOrCreateSession(ctx, "racer")
			ids[i], errs[i] = s.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("call %d got %s, want %s", i, ids[i].Hex(), ids[0].Hex())
		}
	}
	count, err := db.Collection(chatstore.SessionsCollection).CountDocuments(ctx, bson.M{"visitor_id": "racer"})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if count != 1 {
		t.Errorf("sessions for visitor: got %d, want 1", count)
	}
}

func TestClose_ThenNewSession(t *testing.T) {
	store, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s, _, err := store.GetOrCreateSession(ctx, "v")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	closed, err := store.CloseSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if closed.Status != models.ChatClosed || closed.ClosedAt == nil {
		t.Errorf("closed = %+v", closed)
	}
	again, err := store.CloseSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("CloseSession twice: %v", err)
	}
	if !again.ClosedAt.Equal(*closed.ClosedAt) {
		t.Errorf("closed_at moved: %v -> %v", closed.ClosedAt, again.ClosedAt)
	}

	active, err := store.FindActiveSession(ctx, "v")
	if err != nil || active != nil {
		t.Fatalf("FindActiveSession = %+v, %v; want nil, nil", active, err)
	}

	fresh, created, err := store.GetOrCreateSession(ctx, "v")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	if !created || fresh.ID == s.ID {
		t.Error("a closed session must not be reused")
	}
}

func TestAppendMessage_TouchesSession(t *testing.T) {
	store, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s, _, err := store.GetOrCreateSession(ctx, "v")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	msg, err := store.AppendMessage(ctx, s.ID, " Hello, I need help with IELTS ", "Visitor", false)
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if msg.IsFromAdmin {
		t.Error("visitor message marked as admin")
	}
	if msg.Message != "Hello, I need help with IELTS" {
		t.Errorf("Message: got %q", msg.Message)
	}

	got, err := store.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !got.LastMessageAt.Equal(msg.CreatedAt) {
		t.Errorf("last_message_at = %v, want message time %v", got.LastMessageAt, msg.CreatedAt)
	}

	if _, err := store.AppendMessage(ctx, s.ID, "   ", "Visitor", false); !errors.Is(err, chatstore.ErrEmptyMessage) {
		t.Errorf("empty message err = %v", err)
	}
}

func TestGetMessages_Order(t *testing.T) {
	store, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s, _, err := store.GetOrCreateSession(ctx, "v")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	want := []string{"one", "two", "three", "four"}
	for i, text := range want {
		if _, err := store.AppendMessage(ctx, s.ID, text, "x", i%2 == 1); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}
	msgs, err := store.GetMessages(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages", len(msgs))
	}
	for i := range want {
		if msgs[i].Message != want[i] {
			t.Errorf("msgs[%d] = %q, want %q", i, msgs[i].Message, want[i])
		}
	}

	since, err := store.MessagesSince(ctx, s.ID, msgs[1].CreatedAt)
	if err != nil {
		t.Fatalf("MessagesSince: %v", err)
	}
	for _, m := range since {
		if !m.CreatedAt.After(msgs[1].CreatedAt) {
			t.Errorf("MessagesSince returned %q at %v", m.Message, m.CreatedAt)
		}
	}
}

func TestListSessions_LatestAndUnread(t *testing.T) {
	store, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _, _ := store.GetOrCreateSession(ctx, "a")
	b, _, _ := store.GetOrCreateSession(ctx, "b")

	mustSend := func(id primitive.ObjectID, text string, admin bool) models.ChatMessage {
		t.Helper()
		m, err := store.AppendMessage(ctx, id, text, "n", admin)
		if err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
		return m
	}

	mustSend(a.ID, "a1", false)
	a2 := mustSend(a.ID, "a2", false)
	mustSend(b.ID, "b1", false)
	mustSend(b.ID, "b2 reply", true)

	if _, err := store.MarkRead(ctx, a.ID, a2.CreatedAt); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	mustSend(a.ID, "a3", false)

	rows, err := store.ListSessions(ctx, "")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].ID != a.ID {
		t.Errorf("most recent first: got %s", rows[0].VisitorID)
	}
	if rows[0].LatestMessage == nil || rows[0].LatestMessage.Message != "a3" {
		t.Errorf("a latest = %+v", rows[0].LatestMessage)
	}
	if rows[0].UnreadCount != 1 {
		t.Errorf("a unread: got %d, want 1", rows[0].UnreadCount)
	}
	if rows[1].UnreadCount != 1 {
		t.Errorf("b unread: got %d, want 1 (admin replies do not count)", rows[1].UnreadCount)
	}

	// MarkRead never moves the cursor back.
	old := a2.CreatedAt.Add(-time.Hour)
	sess, err := store.MarkRead(ctx, a.ID, old)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !sess.AdminReadAt.Equal(a2.CreatedAt) {
		t.Errorf("cursor moved back to %v", sess.AdminReadAt)
	}
	n, err := store.UnreadCount(ctx, sess)
	if err != nil || n != 1 {
		t.Errorf("UnreadCount = %d, %v", n, err)
	}

	if _, err := store.CloseSession(ctx, b.ID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	active, err := store.ListSessions(ctx, models.ChatActive)
	if err != nil {
		t.Fatalf("ListSessions(active): %v", err)
	}
	if len(active) != 1 || active[0].ID != a.ID {
		t.Errorf("active = %+v", active)
	}
}

func TestDeleteSession_Cascades(t *testing.T) {
	store, db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s, _, _ := store.GetOrCreateSession(ctx, "v")
	other, _, _ := store.GetOrCreateSession(ctx, "w")
	for _, text := range []string{"x", "y", "z"} {
		if _, err := store.AppendMessage(ctx, s.ID, text, "n", false); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}
	if _, err := store.AppendMessage(ctx, other.ID, "keep", "n", false); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	n, err := store.DeleteSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted messages: got %d, want 3", n)
	}
	if _, err := store.GetSession(ctx, s.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("session still present: %v", err)
	}
	left, err := db.Collection(chatstore.MessagesCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if left != 1 {
		t.Errorf("messages left: got %d, want 1", left)
	}

	if _, err := store.DeleteSession(ctx, s.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestUpdateSessionDetails_Partial(t *testing.T) {
	store, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s, _, _ := store.GetOrCreateSession(ctx, "v")
	name, email := "Gita", "gita@example.com"
	if _, err := store.UpdateSessionDetails(ctx, s.ID, chatstore.Details{Name: &name, Email: &email}); err != nil {
		t.Fatalf("UpdateSessionDetails: %v", err)
	}
	phone := "9801234567"
	got, err := store.UpdateSessionDetails(ctx, s.ID, chatstore.Details{Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateSessionDetails: %v", err)
	}
	if got.VisitorName != name || got.VisitorEmail != email || got.VisitorPhone != phone {
		t.Errorf("details = %+v", got)
	}
}
