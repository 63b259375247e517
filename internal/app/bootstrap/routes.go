// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"net/url"
	"strings"

	announcementsfeature "github.com/dalemusser/consultancy/internal/app/features/announcements"
	auditlogfeature "github.com/dalemusser/consultancy/internal/app/features/auditlog"
	branchesfeature "github.com/dalemusser/consultancy/internal/app/features/branches"
	chatfeature "github.com/dalemusser/consultancy/internal/app/features/chat"
	consultationsfeature "github.com/dalemusser/consultancy/internal/app/features/consultations"
	dashboardfeature "github.com/dalemusser/consultancy/internal/app/features/dashboard"
	eventsfeature "github.com/dalemusser/consultancy/internal/app/features/events"
	galleryfeature "github.com/dalemusser/consultancy/internal/app/features/gallery"
	healthfeature "github.com/dalemusser/consultancy/internal/app/features/health"
	jobsfeature "github.com/dalemusser/consultancy/internal/app/features/jobs"
	loginfeature "github.com/dalemusser/consultancy/internal/app/features/login"
	logoutfeature "github.com/dalemusser/consultancy/internal/app/features/logout"
	popupsfeature "github.com/dalemusser/consultancy/internal/app/features/popups"
	settingsfeature "github.com/dalemusser/consultancy/internal/app/features/settings"
	socialfeature "github.com/dalemusser/consultancy/internal/app/features/social"
	teamfeature "github.com/dalemusser/consultancy/internal/app/features/team"
	testimonialsfeature "github.com/dalemusser/consultancy/internal/app/features/testimonials"
	"github.com/dalemusser/consultancy/internal/app/store/audit"
	userstore "github.com/dalemusser/consultancy/internal/app/store/users"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/auth"
	"github.com/dalemusser/consultancy/internal/app/system/filestore"
	"github.com/dalemusser/consultancy/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The router has four areas:
//   - /health, /metrics and locally stored /files
//   - /api: the public site (read-only content plus the booking, job
//     application, testimonial and chat endpoints)
//   - /auth: admin sign-in, sign-out and the current admin
//   - /admin: everything an admin manages, behind RequireAdmin
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser re-reads the admin on each request so disabled
	// accounts lose access immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	db := deps.MongoDatabase
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	tokens := auth.NewVisitorTokens(appCfg.SessionKey, appCfg.ChatTokenTTL)

	var maxBytes int64
	if appCfg.UploadMaxMB > 0 {
		maxBytes = int64(appCfg.UploadMaxMB) << 20
	}

	settingsHandler := settingsfeature.NewHandler(db, deps.Files, auditLog, logger)
	galleryHandler := galleryfeature.NewHandler(db, deps.Files, auditLog, logger)
	jobsHandler := jobsfeature.NewHandler(db, deps.Files, auditLog, logger)
	popupsHandler := popupsfeature.NewHandler(db, deps.Files, auditLog, logger)
	teamHandler := teamfeature.NewHandler(db, deps.Files, auditLog, logger)
	testimonialsHandler := testimonialsfeature.NewHandler(db, deps.Files, auditLog, logger)
	if maxBytes > 0 {
		settingsHandler.MaxBytes = maxBytes
		galleryHandler.MaxBytes = maxBytes
		jobsHandler.MaxBytes = maxBytes
		popupsHandler.MaxBytes = maxBytes
		teamHandler.MaxBytes = maxBytes
		testimonialsHandler.MaxBytes = maxBytes
	}

	announcementsHandler := announcementsfeature.NewHandler(db, auditLog, logger)
	branchesHandler := branchesfeature.NewHandler(db, auditLog, logger)
	consultationsHandler := consultationsfeature.NewHandler(db, auditLog, logger)
	eventsHandler := eventsfeature.NewHandler(db, auditLog, logger)
	socialHandler := socialfeature.NewHandler(db, auditLog, logger)
	chatHandler := chatfeature.NewHandler(db, deps.Hub, deps.Signals, tokens, auditLog, appCfg.CORSAllowedOrigins, logger)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.VisitorTokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Disk-backed uploads are served by us; S3 URLs point at the bucket.
	if deps.LocalFiles != nil {
		prefix := filesPrefix(appCfg.StoragePublicURL)
		r.Handle(prefix+"/*", http.StripPrefix(prefix, filestore.LocalHandler(deps.LocalFiles)))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/settings", settingsHandler.MountPublic)
		r.Route("/announcements", announcementsHandler.MountPublic)
		r.Route("/branches", branchesHandler.MountPublic)
		r.Route("/events", eventsHandler.MountPublic)
		r.Route("/gallery", galleryHandler.MountPublic)
		r.Route("/jobs", jobsHandler.MountPublic)
		r.Route("/popup", popupsHandler.MountPublic)
		r.Route("/social", socialHandler.MountPublic)
		r.Route("/team", teamHandler.MountPublic)
		r.Route("/testimonials", testimonialsHandler.MountPublic)
		r.Route("/consultations", consultationsHandler.MountPublic)
		r.Route("/chat", chatHandler.MountPublic)
	})

	// Authentication
	r.Route("/auth", func(r chi.Router) {
		loginfeature.NewHandler(db, sessionMgr, auditLog, logger).Mount(r)
		logoutfeature.NewHandler(sessionMgr, auditLog, logger).Mount(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin)

		r.Route("/dashboard", dashboardfeature.NewHandler(db, logger).MountAdmin)
		r.Route("/audit", auditlogfeature.NewHandler(db, logger).MountAdmin)

		r.Route("/settings", settingsHandler.MountAdmin)
		r.Route("/announcements", announcementsHandler.MountAdmin)
		r.Route("/branches", branchesHandler.MountAdmin)
		r.Route("/events", eventsHandler.MountAdmin)
		r.Route("/gallery", galleryHandler.MountAdmin)
		r.Route("/jobs", jobsHandler.MountAdmin)
		r.Route("/popups", popupsHandler.MountAdmin)
		r.Route("/social", socialHandler.MountAdmin)
		r.Route("/team", teamHandler.MountAdmin)
		r.Route("/testimonials", testimonialsHandler.MountAdmin)
		r.Route("/consultations", consultationsHandler.MountAdmin)
		r.Route("/chat", chatHandler.MountAdmin)
	})

	return r, nil
}

// filesPrefix returns the router path local files are served under. The
// public URL may be absolute (https://cdn.example.com/files) or a bare path.
func filesPrefix(publicURL string) string {
	p := publicURL
	if u, err := url.Parse(publicURL); err == nil && u.Host != "" {
		p = u.Path
	}
	p = "/" + strings.Trim(p, "/")
	if p == "/" {
		return "/files"
	}
	return p
}
