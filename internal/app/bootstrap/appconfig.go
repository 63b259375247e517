// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework side (ports, TLS, log level); everything the consultancy
// backend itself needs lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Redis backs typing/presence signals. Blank means in-process memory,
	// which is fine for a single instance.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Admin session cookies
	SessionKey    string // also derives the chat visitor token key
	SessionName   string
	SessionDomain string

	// File storage
	StorageType      string // "local" or "s3"
	StorageLocalPath string
	StoragePublicURL string // base URL files are served from

	StorageS3Region   string
	StorageS3Bucket   string
	StorageS3Prefix   string
	StorageS3Endpoint string // S3-compatible services (MinIO, R2)

	// Browser origins allowed to call the API and open chat websockets.
	CORSAllowedOrigins []string

	// Bootstrap admin, created at startup when the email is unused.
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// Chat signal timings
	ChatTypingTTL    time.Duration
	ChatTypingIdle   time.Duration
	ChatPresenceTTL  time.Duration
	ChatHeartbeat    time.Duration
	ChatPresencePoll time.Duration
	ChatTokenTTL     time.Duration

	UploadMaxMB int

	// Database operation timeouts (zero keeps the defaults)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// Audit logging: "all", "db", "log" or "off" per category
	AuditLogAuth  string
	AuditLogAdmin string
}
