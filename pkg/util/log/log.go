// Package log provides the structured logger shared across the agent's
// components, wrapping go.uber.org/zap the way the rest of the dependency
// pack wires it in.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	logger  *zap.Logger = must(zap.NewProduction())
	sugared             = logger.Sugar()
)

func must(l *zap.Logger, err error) *zap.Logger {
	if err != nil {
		panic(err)
	}
	return l
}

// SetLevel reconfigures the global logger's minimum level. Used at startup
// with the -log-level flag, before the configuration file is loaded.
func SetLevel(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	logger = l
	sugared = l.Sugar()
	mu.Unlock()
	return nil
}

// L returns the shared structured logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debugw logs a debug message with structured key/value pairs.
func Debugw(msg string, kv ...interface{}) {
	mu.RLock()
	s := sugared
	mu.RUnlock()
	s.Debugw(msg, kv...)
}

// Infow logs an info message with structured key/value pairs.
func Infow(msg string, kv ...interface{}) {
	mu.RLock()
	s := sugared
	mu.RUnlock()
	s.Infow(msg, kv...)
}

// Warnw logs a warning message with structured key/value pairs.
func Warnw(msg string, kv ...interface{}) {
	mu.RLock()
	s := sugared
	mu.RUnlock()
	s.Warnw(msg, kv...)
}

// Errorw logs an error message with structured key/value pairs.
func Errorw(msg string, kv ...interface{}) {
	mu.RLock()
	s := sugared
	mu.RUnlock()
	s.Errorw(msg, kv...)
}
