// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dalemusser/consultancy/internal/app/system/indexes"
	"github.com/dalemusser/consultancy/internal/app/system/realtime"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validators"
	"github.com/dalemusser/consultancy/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// redisKeyPrefix namespaces signal keys when Redis is shared with other apps.
const redisKeyPrefix = "consultancy:"

// ConnectDB opens MongoDB, the optional Redis signal store and the file
// store, and builds the chat hub around them. Any failure closes what was
// already opened.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return deps, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return deps, fmt.Errorf("ping mongo: %w", err)
	}
	deps.MongoClient = client
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	var store signals.Store
	if appCfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			_ = client.Disconnect(context.Background())
			return DBDeps{}, fmt.Errorf("ping redis: %w", err)
		}
		deps.Redis = rdb
		store = signals.NewRedis(rdb, redisKeyPrefix)
		logger.Info("chat signals stored in Redis", zap.String("addr", appCfg.RedisAddr))
	} else {
		store = signals.NewMemory(nil)
		logger.Info("chat signals stored in memory (single instance only)")
	}

	switch appCfg.StorageType {
	case "s3":
		s3Store, err := storage.NewS3(ctx, storage.S3Config{
			Region:       appCfg.StorageS3Region,
			Bucket:       appCfg.StorageS3Bucket,
			Prefix:       appCfg.StorageS3Prefix,
			Endpoint:     appCfg.StorageS3Endpoint,
			UsePathStyle: appCfg.StorageS3Endpoint != "",
			BaseURL:      s3BaseURL(appCfg.StoragePublicURL),
		})
		if err != nil {
			closeDeps(deps, logger)
			return DBDeps{}, fmt.Errorf("open s3 storage: %w", err)
		}
		deps.Files = s3Store
		logger.Info("file storage: s3", zap.String("bucket", appCfg.StorageS3Bucket))
	default:
		local, err := storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StoragePublicURL,
		})
		if err != nil {
			closeDeps(deps, logger)
			return DBDeps{}, fmt.Errorf("open local storage: %w", err)
		}
		deps.Files = local
		deps.LocalFiles = local
		logger.Info("file storage: local", zap.String("path", appCfg.StorageLocalPath))
	}

	cfg := signals.Config{
		TypingTTL:      appCfg.ChatTypingTTL,
		TypingIdle:     appCfg.ChatTypingIdle,
		PresenceTTL:    appCfg.ChatPresenceTTL,
		HeartbeatEvery: appCfg.ChatHeartbeat,
		PollEvery:      appCfg.ChatPresencePoll,
	}
	deps.Hub = realtime.NewHub(0, logger)
	deps.Signals = signals.NewTracker(store, cfg, nil)
	deps.Sweeper = workers.NewPresenceSweeper(deps.Hub, deps.Signals, logger, cfg.PollEvery)

	return deps, nil
}

// s3BaseURL keeps an absolute public URL (CDN, bucket website). A bare path
// such as the local default "/files" means the bucket's own URL is used.
func s3BaseURL(publicURL string) string {
	if u, err := url.Parse(publicURL); err == nil && u.Host != "" {
		return publicURL
	}
	return ""
}

// closeDeps releases connections opened by a failed ConnectDB.
func closeDeps(deps DBDeps, logger *zap.Logger) {
	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if deps.MongoClient != nil {
		if err := deps.MongoClient.Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}
}

// EnsureSchema attaches collection validators, then creates the indexes
// every collection relies on, including the unique partial index that
// allows one active chat per visitor.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured", zap.Strings("collections", indexes.Collections()))
	return nil
}
