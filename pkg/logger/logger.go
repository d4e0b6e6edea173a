package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled logger shared by the collab service.
// - backed by zap (console encoder in development, JSON in production)
// - provides Debugf/Infof/Warnf/Errorf/Fatalf and Init(level)
// - L() hands out the structured *zap.Logger for components that log fields

var (
	mu    sync.RWMutex
	out   zapcore.WriteSyncer = zapcore.Lock(os.Stdout)
	level                     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	env                       = "development"
	base  *zap.Logger         = build()
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	level.SetLevel(parseLevel(l))
}

// SetEnvironment switches the encoder: "production" logs JSON, anything else logs console lines.
func SetEnvironment(e string) {
	mu.Lock()
	defer mu.Unlock()
	env = strings.ToLower(strings.TrimSpace(e))
	base = build()
}

func parseLevel(l string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// build must be called with mu held (or during package init).
func build() *zap.Logger {
	var enc zapcore.Encoder
	if env == "production" {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	return zap.New(zapcore.NewCore(enc, out, level))
}

// L returns the structured logger. Callers holding the result keep the encoder that was
// active at the time of the call.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func sugar() *zap.SugaredLogger {
	return L().Sugar()
}

func Debugf(format string, v ...interface{}) { sugar().Debugf(format, v...) }
func Infof(format string, v ...interface{})  { sugar().Infof(format, v...) }
func Warnf(format string, v ...interface{})  { sugar().Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { sugar().Errorf(format, v...) }

// Fatalf logs at fatal level and exits.
func Fatalf(format string, v ...interface{}) { sugar().Fatalf(format, v...) }

// Sync flushes buffered entries; call before exit.
func Sync() error {
	return L().Sync()
}

// LevelString returns the current level as text.
func LevelString() string {
	switch level.Level() {
	case zapcore.DebugLevel:
		return "debug"
	case zapcore.WarnLevel:
		return "warn"
	case zapcore.ErrorLevel:
		return "error"
	case zapcore.FatalLevel:
		return "fatal"
	}
	return "info"
}
