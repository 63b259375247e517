// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the consultancy backend.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CONSULTANCY_MONGO_URI, CONSULTANCY_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "consultancy", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "redis_addr", Default: "", Desc: "Redis address for chat signals (blank keeps them in memory)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "consultancy-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_public_url", Default: "/files", Desc: "Base URL uploaded files are served from"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "", Desc: "S3 key prefix"},
	{Name: "storage_s3_endpoint", Default: "", Desc: "Custom S3 endpoint for S3-compatible services"},

	{Name: "cors_allowed_origins", Default: "http://localhost:3000", Desc: "Comma-separated browser origins allowed to call the API"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the bootstrap admin (created on startup if missing)"},
	{Name: "admin_password", Default: "", Desc: "Initial password of the bootstrap admin"},
	{Name: "admin_name", Default: "Administrator", Desc: "Display name of the bootstrap admin"},

	// Chat
	{Name: "chat_typing_ttl", Default: "3s", Desc: "How long a typing indicator lives without a refresh"},
	{Name: "chat_typing_idle", Default: "1s", Desc: "Client idle time before it sends a typing stop"},
	{Name: "chat_presence_ttl", Default: "10s", Desc: "How long a heartbeat keeps a participant online"},
	{Name: "chat_heartbeat", Default: "5s", Desc: "How often chat clients send a presence heartbeat"},
	{Name: "chat_presence_poll", Default: "3s", Desc: "Presence sweep interval"},
	{Name: "chat_token_ttl", Default: "720h", Desc: "Lifetime of a chat visitor token"},

	{Name: "upload_max_mb", Default: 10, Desc: "Maximum upload request size in megabytes"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document database operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list and multi-step database operations"},
	{Name: "timeout_long", Default: "60s", Desc: "Timeout for uploads and bulk work"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, CONSULTANCY_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CONSULTANCY", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		StorageType:       appValues.String("storage_type"),
		StorageLocalPath:  appValues.String("storage_local_path"),
		StoragePublicURL:  appValues.String("storage_public_url"),
		StorageS3Region:   appValues.String("storage_s3_region"),
		StorageS3Bucket:   appValues.String("storage_s3_bucket"),
		StorageS3Prefix:   appValues.String("storage_s3_prefix"),
		StorageS3Endpoint: appValues.String("storage_s3_endpoint"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),
		AdminName:     appValues.String("admin_name"),

		ChatTypingTTL:    appValues.Duration("chat_typing_ttl", 3*time.Second),
		ChatTypingIdle:   appValues.Duration("chat_typing_idle", time.Second),
		ChatPresenceTTL:  appValues.Duration("chat_presence_ttl", 10*time.Second),
		ChatHeartbeat:    appValues.Duration("chat_heartbeat", 5*time.Second),
		ChatPresencePoll: appValues.Duration("chat_presence_poll", 3*time.Second),
		ChatTokenTTL:     appValues.Duration("chat_token_ttl", 30*24*time.Hour),

		UploadMaxMB: appValues.Int("upload_max_mb"),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated config value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before any connection is attempted, and
// storage or admin settings that cannot work are rejected up front.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.StorageType {
	case "local":
	case "s3":
		if appCfg.StorageS3Bucket == "" {
			return errors.New("storage_type=s3 requires storage_s3_bucket")
		}
	default:
		return fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType)
	}

	if appCfg.AdminEmail != "" && len(appCfg.AdminPassword) < 8 {
		return errors.New("admin_password must be at least 8 characters when admin_email is set")
	}

	if appCfg.ChatTypingIdle >= appCfg.ChatTypingTTL {
		return fmt.Errorf("chat_typing_idle (%s) must be shorter than chat_typing_ttl (%s)",
			appCfg.ChatTypingIdle, appCfg.ChatTypingTTL)
	}
	if appCfg.ChatHeartbeat >= appCfg.ChatPresenceTTL {
		return fmt.Errorf("chat_heartbeat (%s) must be shorter than chat_presence_ttl (%s)",
			appCfg.ChatHeartbeat, appCfg.ChatPresenceTTL)
	}

	for name, mode := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch mode {
		case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			return fmt.Errorf("%s must be all, db, log or off, got %q", name, mode)
		}
	}

	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return errors.New("session_key must be set in production")
	}
	return nil
}
