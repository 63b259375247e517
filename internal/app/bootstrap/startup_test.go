package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	userstore "github.com/dalemusser/consultancy/internal/app/store/users"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/realtime"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"github.com/dalemusser/consultancy/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testAppConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "consultancy",
		SessionKey:         "test-session-key-0123456789abcdef0123456789",
		SessionName:        "consultancy-test",
		StorageType:        "local",
		StoragePublicURL:   "/files",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		AdminEmail:         "owner@example.com",
		AdminPassword:      "correct-horse",
		AdminName:          "Owner",
		ChatTypingTTL:      3 * time.Second,
		ChatTypingIdle:     time.Second,
		ChatPresenceTTL:    10 * time.Second,
		ChatHeartbeat:      5 * time.Second,
		ChatPresencePoll:   3 * time.Second,
		ChatTokenTTL:       time.Hour,
		AuditLogAuth:       auditlog.ModeAll,
		AuditLogAdmin:      auditlog.ModeAll,
	}
}

func TestEnsureAdmin_CreatesOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	cfg := testAppConfig()

	if err := ensureAdmin(ctx, deps, cfg, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}
	u, err := userstore.New(db).GetByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != "admin" || u.Status != "active" {
		t.Errorf("got role=%q status=%q, want admin/active", u.Role, u.Status)
	}

	// A second run with a different password leaves the account alone.
	cfg.AdminPassword = "another-password"
	if err := ensureAdmin(ctx, deps, cfg, testLogger()); err != nil {
		t.Fatalf("second ensureAdmin failed: %v", err)
	}
	if _, err := userstore.New(db).Authenticate(ctx, cfg.AdminEmail, "correct-horse"); err != nil {
		t.Errorf("original password should still work: %v", err)
	}
	n, err := db.Collection("users").CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
}

func TestEnsureAdmin_SkipsWithoutEmail(t *testing.T) {
	cfg := testAppConfig()
	cfg.AdminEmail = ""
	// No database is needed when there is nothing to create.
	if err := ensureAdmin(context.Background(), DBDeps{}, cfg, testLogger()); err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		core    *config.CoreConfig
		wantErr bool
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "bad mongo uri", mutate: func(c *AppConfig) { c.MongoURI = "postgres://nope" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *AppConfig) { c.StorageType = "s3" }, wantErr: true},
		{name: "s3 with bucket", mutate: func(c *AppConfig) { c.StorageType = "s3"; c.StorageS3Bucket = "uploads" }},
		{name: "unknown storage", mutate: func(c *AppConfig) { c.StorageType = "ftp" }, wantErr: true},
		{name: "short admin password", mutate: func(c *AppConfig) { c.AdminPassword = "short" }, wantErr: true},
		{name: "idle not below ttl", mutate: func(c *AppConfig) { c.ChatTypingIdle = 5 * time.Second }, wantErr: true},
		{name: "heartbeat not below presence ttl", mutate: func(c *AppConfig) { c.ChatHeartbeat = 10 * time.Second }, wantErr: true},
		{name: "bad audit mode", mutate: func(c *AppConfig) { c.AuditLogAdmin = "sometimes" }, wantErr: true},
		{
			name:    "dev session key in prod",
			mutate:  func(c *AppConfig) { c.SessionKey = "dev-only-change-me-please-0123456789ABCDEF" },
			core:    &config.CoreConfig{Env: "prod"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAppConfig()
			tt.mutate(&cfg)
			core := tt.core
			if core == nil {
				core = &config.CoreConfig{Env: "dev"}
			}
			err := ValidateConfig(core, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test,")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Error("empty input should give nil")
	}
}

func TestFilesPrefix(t *testing.T) {
	tests := map[string]string{
		"/files":                        "/files",
		"/uploads/":                     "/uploads",
		"https://api.example.com/media": "/media",
		"":                              "/files",
		"https://cdn.example.com":       "/files",
	}
	for in, want := range tests {
		if got := filesPrefix(in); got != want {
			t.Errorf("filesPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestS3BaseURL(t *testing.T) {
	cases := map[string]string{
		"/files":                        "",
		"":                              "",
		"https://cdn.example.com":       "https://cdn.example.com",
		"https://cdn.example.com/files": "https://cdn.example.com/files",
	}
	for in, want := range cases {
		if got := s3BaseURL(in); got != want {
			t.Errorf("s3BaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

// testDeps builds the dependencies ConnectDB would, around a test database.
func testDeps(t *testing.T) DBDeps {
	t.Helper()
	db := testutil.SetupTestDB(t)
	local, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/files"})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return DBDeps{
		MongoClient:   db.Client(),
		MongoDatabase: db,
		Files:         local,
		LocalFiles:    local,
		Hub:           realtime.NewHub(0, testLogger()),
		Signals:       signals.NewTracker(signals.NewMemory(nil), signals.DefaultConfig(), nil),
	}
}

func TestBuildHandler_Routes(t *testing.T) {
	deps := testDeps(t)
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, testAppConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/settings", http.StatusOK},
		{http.MethodGet, "/api/announcements", http.StatusOK},
		{http.MethodGet, "/api/branches", http.StatusOK},
		{http.MethodGet, "/api/team", http.StatusOK},
		{http.MethodGet, "/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/admin/dashboard", http.StatusUnauthorized},
		{http.MethodGet, "/admin/chat/sessions", http.StatusUnauthorized},
		{http.MethodGet, "/files/missing.png", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestBuildHandler_CORSPreflight(t *testing.T) {
	deps := testDeps(t)
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, testAppConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/consultations", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
}

func TestBuildHandler_AdminSignIn(t *testing.T) {
	deps := testDeps(t)
	cfg := testAppConfig()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := ensureAdmin(ctx, deps, cfg, testLogger()); err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	body := `{"email":"owner@example.com","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login set no cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("dashboard with session = %d: %s", rec.Code, rec.Body.String())
	}
}
