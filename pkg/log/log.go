// Package log provides the global structured logger for the FinDex platform.
//
// It is a thin wrapper around zap's SugaredLogger so call sites can use
// key/value logging (Infow, Warnw, ...) without carrying a logger around.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how the global logger is built.
type Config struct {
	// Level is the minimum enabled level (debug|info|warn|error).
	Level string
	// Format selects the encoder (json|console).
	Format string
	// OutputPaths are zap output sinks (stdout, stderr or file paths).
	OutputPaths []string
	// Development enables DPanic and more liberal stack traces.
	Development bool
	// DisableCaller stops annotating logs with the caller.
	DisableCaller bool
	// DisableStacktrace disables automatic stacktrace capture.
	DisableStacktrace bool
	// InitialFields are attached to every log entry.
	InitialFields map[string]any
}

var (
	mu     sync.RWMutex
	global = newDefault()
)

func newDefault() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a no-op logger rather than crashing before main runs.
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// Init builds the global logger from cfg. It replaces any previous logger.
func Init(cfg *Config) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zcfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		Encoding:          cfg.Format,
		EncoderConfig:     zap.NewProductionEncoderConfig(),
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields:     cfg.InitialFields,
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == "console" {
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	if len(zcfg.OutputPaths) == 0 {
		zcfg.OutputPaths = []string{"stdout"}
	}

	l, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	global = l.Sugar()
	mu.Unlock()
	return nil
}

// L returns the current global logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Sync flushes buffered log entries. Call it before process exit.
func Sync() {
	_ = L().Sync()
}

func Debug(args ...any)                 { L().Debug(args...) }
func Debugf(format string, args ...any) { L().Debugf(format, args...) }
func Debugw(msg string, kv ...any)      { L().Debugw(msg, kv...) }

func Info(args ...any)                 { L().Info(args...) }
func Infof(format string, args ...any) { L().Infof(format, args...) }
func Infow(msg string, kv ...any)      { L().Infow(msg, kv...) }

func Warn(args ...any)                 { L().Warn(args...) }
func Warnf(format string, args ...any) { L().Warnf(format, args...) }
func Warnw(msg string, kv ...any)      { L().Warnw(msg, kv...) }

func Error(args ...any)                 { L().Error(args...) }
func Errorf(format string, args ...any) { L().Errorf(format, args...) }
func Errorw(msg string, kv ...any)      { L().Errorw(msg, kv...) }

func Fatal(args ...any)            { L().Fatal(args...) }
func Fatalw(msg string, kv ...any) { L().Fatalw(msg, kv...) }

// SetGlobal replaces the global logger. Intended for tests.
func SetGlobal(l *zap.SugaredLogger) {
	mu.Lock()
	global = l
	mu.Unlock()
}
