package dblog

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Global logger instance and synchronization
var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
	isInited bool
	initOnce sync.Once // for lazy initialization in Get
)

// Level represents logging verbosity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Config holds logger configuration
type Config struct {
	Level      Level
	OutputPath string // empty for stderr, or file path
	Format     string // "json" or "console"
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init initializes the global logger with the given configuration.
// This should be called once at application startup.
// Subsequent calls to Init will return an error to prevent multiple initialization.
//
// Example:
//
//	dblog.Init(dblog.Config{
//	    Level:      dblog.LevelInfo,
//	    OutputPath: "logs/database.log",
//	    Format:     "json",
//	})
func Init(cfg Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(zapLevel(cfg.Level))
	if cfg.OutputPath != "" {
		zcfg.OutputPaths = []string{cfg.OutputPath}
	}

	built, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("build zap logger: %w", err)
	}

	logger = built
	isInited = true
	return nil
}

// InitDefault initializes the logger with sensible defaults:
//   - Level: INFO
//   - Output: stderr
//   - Format: console
//
// This is safe to call multiple times and will only initialize once.
func InitDefault() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return
	}

	built, err := zap.NewDevelopmentConfig().Build()
	if err != nil {
		built = zap.NewNop()
	}
	logger = built
	isInited = true
}

// Close flushes and releases the logger and any open file handles.
// After calling Close, you can call Init again to reinitialize.
// It's safe to call Close multiple times.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !isInited {
		return nil
	}

	err := logger.Sync()
	logger = nil
	isInited = false
	initOnce = sync.Once{}
	return err
}

// Get returns the current logger instance in a thread-safe manner.
// If the logger is not initialized, it initializes with defaults using
// sync.Once for efficient lazy initialization.
func Get() *zap.Logger {
	loggerMu.RLock()
	if isInited {
		l := logger
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()

	initOnce.Do(InitDefault)

	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	return l
}
