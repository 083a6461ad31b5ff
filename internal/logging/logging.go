// Package logging provides structured logging with zap.
package logging

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
)

var (
	mu           sync.Mutex
	globalLogger *zap.Logger
	globalLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stdout, stderr, or file path
}

// Init initializes the global logger.
func Init(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
	return nil
}

// New builds a logger without touching the global one.
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var config zap.Config
	if cfg.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	}

	globalLevel.SetLevel(level)
	config.Level = globalLevel
	// CLI output goes to stdout; logs stay on stderr unless redirected.
	config.OutputPaths = []string{"stderr"}
	if cfg.OutputPath != "" {
		config.OutputPaths = []string{cfg.OutputPath}
	}

	return config.Build()
}

// Sync flushes any buffered log entries.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// L returns the global logger. Until Init is called it logs warnings and
// above to stderr.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		cfg.DisableStacktrace = true
		logger, err := cfg.Build()
		if err != nil {
			logger = zap.NewNop()
		}
		globalLogger = logger
	}
	return globalLogger
}

// Named returns a child of the global logger for a component.
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// WithContext returns the logger stored in ctx, or fallback (the global
// logger if fallback is nil).
func WithContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return L()
}

// WithRequestID stores the request ID and a logger carrying it in ctx.
func WithRequestID(ctx context.Context, base *zap.Logger, requestID string) context.Context {
	logger := WithContext(ctx, base).With(zap.String("request_id", requestID))
	ctx = context.WithValue(ctx, loggerKey, logger)
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Field helpers for common fields.
func String(key, val string) zap.Field {
	return zap.String(key, val)
}

func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

func Err(err error) zap.Field {
	return zap.Error(err)
}

func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}
