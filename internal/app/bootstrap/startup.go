// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	userstore "github.com/dalemusser/consultancy/internal/app/store/users"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It creates the bootstrap admin (when configured) and starts the presence
// sweeper that turns expired typing and heartbeat signals into events.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := ensureAdmin(ctx, deps, appCfg, logger); err != nil {
		return err
	}
	if deps.Sweeper != nil {
		deps.Sweeper.Start()
	}
	return nil
}

// ensureAdmin creates the configured admin account if no user has its email.
// Without admin_email there is no way to sign in, so it warns instead.
func ensureAdmin(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.AdminEmail == "" {
		logger.Warn("admin_email not set; no bootstrap admin will be created")
		return nil
	}
	created, err := userstore.New(deps.MongoDatabase).EnsureAdmin(ctx, appCfg.AdminName, appCfg.AdminEmail, appCfg.AdminPassword)
	if err != nil {
		logger.Error("ensure admin failed", zap.String("email", appCfg.AdminEmail), zap.Error(err))
		return err
	}
	if created {
		logger.Info("created bootstrap admin", zap.String("email", appCfg.AdminEmail))
	}
	return nil
}
