// Package dblog provides a process-wide structured logger for storedb.
//
// The package wraps [go.uber.org/zap] and exposes a single global logger
// instance that is initialized once and then retrieved via Get. Subsystems
// obtain a logger through this package rather than constructing their own
// zap.Logger values, so that level and output destination are controlled
// from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup:
//
//	if err := dblog.Init(dblog.Config{Level: dblog.LevelDebug}); err != nil {
//	    log.Fatal(err)
//	}
//
// # Retrieving the logger
//
//	log := dblog.Get()
//	log.Info("database opened", zap.String("name", dbName))
//
// If Get is called before Init, a default stderr logger is created lazily
// (via sync.Once) so that packages that log during init are safe.
package dblog
