package login_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/consultancy/internal/app/features/login"
	"github.com/dalemusser/consultancy/internal/app/features/logout"
	userstore "github.com/dalemusser/consultancy/internal/app/store/users"
	"github.com/dalemusser/consultancy/internal/app/system/auth"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"github.com/dalemusser/consultancy/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (http.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	r := chi.NewRouter()
	r.Use(sessionMgr.LoadSessionUser)
	r.Route("/auth", func(r chi.Router) {
		login.NewHandler(db, sessionMgr, nil, logger).Mount(r)
		logout.NewHandler(sessionMgr, nil, logger).Mount(r)
	})
	return r, db
}

func createAdmin(t *testing.T, db *mongo.Database, email string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := userstore.New(db).Create(ctx, "Test Admin", email, "correct-horse")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return u
}

func withCookies(r *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestLoginMeLogout(t *testing.T) {
	router, db := newRouter(t)
	createAdmin(t, db, "admin@example.com")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/auth/login",
		map[string]any{"email": "Admin@Example.com", "password": "correct-horse"}))
	testutil.AssertStatus(t, rec, http.StatusOK)
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("login did not set a session cookie")
	}
	loginRec := rec

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/auth/me", nil), loginRec))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var me auth.SessionUser
	testutil.DecodeJSON(t, rec, &me)
	if me.Email != "admin@example.com" || !me.IsAdmin() {
		t.Errorf("me = %+v", me)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), loginRec))
	testutil.AssertStatus(t, rec, http.StatusNoContent)
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout should expire the session cookie")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestLoginFailures(t *testing.T) {
	router, db := newRouter(t)
	u := createAdmin(t, db, "ops@example.com")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"wrong password", map[string]any{"email": "ops@example.com", "password": "nope-nope"}, http.StatusUnauthorized},
		{"unknown email", map[string]any{"email": "ghost@example.com", "password": "correct-horse"}, http.StatusUnauthorized},
		{"missing password", map[string]any{"email": "ops@example.com"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/auth/login", tt.body))
			testutil.AssertStatus(t, rec, tt.want)
		})
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := userstore.New(db).SetStatus(ctx, u.ID, models.StatusDisabled); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/auth/login",
		map[string]any{"email": "ops@example.com", "password": "correct-horse"}))
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}

func TestLoginRateLimitedPerEmail(t *testing.T) {
	router, db := newRouter(t)
	createAdmin(t, db, "limit@example.com")

	body := map[string]any{"email": "limit@example.com", "password": "wrong-password"}
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/auth/login", body))
		testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/auth/login", body))
	testutil.AssertStatus(t, rec, http.StatusTooManyRequests)
}
