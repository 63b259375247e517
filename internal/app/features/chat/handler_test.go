package chat_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/chat"
	settingsstore "github.com/dalemusser/consultancy/internal/app/store/settings"
	"github.com/dalemusser/consultancy/internal/app/system/auth"
	"github.com/dalemusser/consultancy/internal/app/system/indexes"
	"github.com/dalemusser/consultancy/internal/app/system/realtime"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type startResult struct {
	Session  models.ChatSession   `json:"session"`
	Created  bool                 `json:"created"`
	Token    string               `json:"token"`
	Greeting string               `json:"greeting"`
	Messages []models.ChatMessage `json:"messages"`
	Timing   struct {
		TypingTTLMs int64 `json:"typing_ttl_ms"`
		HeartbeatMs int64 `json:"heartbeat_ms"`
	} `json:"timing"`
}

func newRouter(t *testing.T) (http.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	tracker := signals.NewTracker(signals.NewMemory(nil), signals.DefaultConfig(), nil)
	h := chat.NewHandler(db, realtime.NewHub(0, zap.NewNop()), tracker,
		auth.NewVisitorTokens("test-secret", time.Hour), nil, nil, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/api/chat", h.MountPublic)
	r.Route("/admin/chat", h.MountAdmin)
	return r, db
}

func start(t *testing.T, router http.Handler, visitor string) startResult {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/api/chat/sessions",
		map[string]any{"visitor_id": visitor, "name": "Ram"}))
	if rec.Code != http.StatusCreated && rec.Code != http.StatusOK {
		t.Fatalf("start: status %d body %s", rec.Code, rec.Body.String())
	}
	var out startResult
	testutil.DecodeJSON(t, rec, &out)
	return out
}

func withToken(r *http.Request, tok string) *http.Request {
	r.Header.Set(auth.VisitorTokenHeader, tok)
	return r
}

func TestVisitorConversation(t *testing.T) {
	router, _ := newRouter(t)

	first := start(t, router, "visitor-a")
	if !first.Created || first.Token == "" || first.Session.VisitorName != "Ram" {
		t.Fatalf("first start = %+v", first)
	}
	if first.Greeting == "" || first.Timing.TypingTTLMs != 3000 || first.Timing.HeartbeatMs != 5000 {
		t.Errorf("greeting/timing missing: %+v", first)
	}
	base := "/api/chat/sessions/" + first.Session.ID.Hex()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withToken(testutil.JSONRequest(t, http.MethodPost, base+"/messages",
		map[string]any{"message": "I want to study in Japan"}), first.Token))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.AsAdmin(testutil.JSONRequest(t, http.MethodPost,
		"/admin/chat/sessions/"+first.Session.ID.Hex()+"/messages", map[string]any{"message": "Great choice!"})))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	// resuming returns the same session with its history
	again := start(t, router, "visitor-a")
	if again.Created || again.Session.ID != first.Session.ID {
		t.Fatalf("resume = %+v", again)
	}
	if len(again.Messages) != 2 || !again.Messages[1].IsFromAdmin {
		t.Fatalf("history = %+v", again.Messages)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withToken(httptest.NewRequest(http.MethodGet, base+"/messages", nil), again.Token))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var msgs []models.ChatMessage
	testutil.DecodeJSON(t, rec, &msgs)
	if len(msgs) != 2 || msgs[0].Message != "I want to study in Japan" {
		t.Errorf("messages = %+v", msgs)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withToken(httptest.NewRequest(http.MethodGet, base+"/messages?since=yesterday", nil), again.Token))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestVisitorToken(t *testing.T) {
	router, _ := newRouter(t)
	a := start(t, router, "visitor-b")
	b := start(t, router, "visitor-c")

	path := "/api/chat/sessions/" + a.Session.ID.Hex() + "/messages"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withToken(httptest.NewRequest(http.MethodGet, path, nil), "forged"))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withToken(httptest.NewRequest(http.MethodGet, path, nil), b.Token))
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	// query parameter works too (websocket clients)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path+"?token="+a.Token, nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestClosedSessionRejectsVisitor(t *testing.T) {
	router, _ := newRouter(t)
	s := start(t, router, "visitor-d")
	id := s.Session.ID.Hex()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.AsAdmin(httptest.NewRequest(http.MethodPost, "/admin/chat/sessions/"+id+"/close", nil)))
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withToken(testutil.JSONRequest(t, http.MethodPost, "/api/chat/sessions/"+id+"/messages",
		map[string]any{"message": "hello?"}), s.Token))
	testutil.AssertStatus(t, rec, http.StatusConflict)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/chat/sessions?status=closed", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var list []map[string]any
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 1 {
		t.Errorf("closed sessions = %d, want 1", len(list))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.AsAdmin(httptest.NewRequest(http.MethodDelete, "/admin/chat/sessions/"+id, nil)))
	testutil.AssertStatus(t, rec, http.StatusNoContent)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/chat/sessions/"+id, nil))
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestChatDisabled(t *testing.T) {
	router, db := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	off := false
	if _, err := settingsstore.New(db).Update(ctx, settingsstore.Patch{ChatEnabled: &off}, "admin"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/api/chat/sessions",
		map[string]any{"visitor_id": "visitor-e"}))
	testutil.AssertStatus(t, rec, http.StatusServiceUnavailable)
}

func TestTypingAndState(t *testing.T) {
	router, _ := newRouter(t)
	s := start(t, router, "visitor-f")
	base := "/api/chat/sessions/" + s.Session.ID.Hex()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withToken(testutil.JSONRequest(t, http.MethodPost, base+"/typing?name=Mallory",
		map[string]any{"is_typing": true}), s.Token))
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withToken(testutil.JSONRequest(t, http.MethodPost, base+"/heartbeat",
		map[string]any{"online": true}), s.Token))
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/chat/sessions/"+s.Session.ID.Hex()+"/state", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var snap signals.Snapshot
	testutil.DecodeJSON(t, rec, &snap)
	if !snap.Typing[signals.RoleVisitor].IsTyping || !snap.Presence[signals.RoleVisitor].Online {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Typing[signals.RoleAdmin].IsTyping {
		t.Error("admin should not be typing")
	}
	if got := snap.Typing[signals.RoleVisitor].Name; got != "Ram" {
		t.Errorf("visitor typing name = %q, want the session's name", got)
	}
}
