// Package logging provides structured logging for consilium, built on zap.
// Components obtain named loggers via Named; the CLI calls Init once at
// startup to select between a quiet production config and verbose debug
// output. Before Init is called every logger is a no-op, which keeps
// library code and tests silent by default.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Init configures the global logger. With debug true it uses zap's
// development config (human-readable, DebugLevel); otherwise a production
// config writing JSON at InfoLevel. Safe to call more than once; the last
// call wins.
func Init(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	mu.Lock()
	root = logger
	mu.Unlock()
	return logger, nil
}

// L returns the current global logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Named returns a child of the global logger with the given name.
// Typical names mirror the package: "llm", "guardian", "ledger",
// "debate", "pipeline".
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes any buffered log entries. Called on CLI shutdown.
func Sync() {
	_ = L().Sync()
}
