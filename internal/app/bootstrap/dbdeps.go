// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/consultancy/internal/app/system/realtime"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"github.com/dalemusser/consultancy/internal/app/system/workers"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// The chat hub, signal tracker and presence sweeper live here too: they are
// built once in ConnectDB, started in Startup, shared by every handler in
// BuildHandler and stopped in Shutdown.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when signals are kept in memory.
	Redis *redis.Client

	Files storage.Store
	// LocalFiles is set when Files is disk-backed and must be served by us.
	LocalFiles *storage.Local

	Hub     *realtime.Hub
	Signals *signals.Tracker
	Sweeper *workers.PresenceSweeper
}
