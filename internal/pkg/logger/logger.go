package logger

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the process-wide logger is built.
type Options struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder instead of JSON
	RedactPII   bool
}

var (
	mu        sync.RWMutex
	base      = zap.NewNop()
	redactPII = true
)

// Init replaces the process-wide logger. Call once from main before any
// goroutine logs.
func Init(opts Options) error {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		cfg.EncoderConfig.MessageKey = "msg"
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	mu.Lock()
	base = l
	redactPII = opts.RedactPII
	mu.Unlock()
	return nil
}

// Set installs an already built zap logger. Tests use it with zaptest or
// observer cores.
func Set(l *zap.Logger) {
	mu.Lock()
	base = l.WithOptions(zap.AddCallerSkip(1))
	mu.Unlock()
}

// L returns the underlying zap logger for callers that want typed fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.WithOptions(zap.AddCallerSkip(-1))
}

// Sync flushes buffered entries. Call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { log(zapcore.DebugLevel, msg, fields...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { log(zapcore.InfoLevel, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { log(zapcore.WarnLevel, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { log(zapcore.ErrorLevel, msg, fields...) }

func log(level zapcore.Level, msg string, fields ...interface{}) {
	mu.RLock()
	l, redact := base, redactPII
	mu.RUnlock()

	ce := l.Check(level, msg)
	if ce == nil {
		return
	}

	// Fields are key-value pairs; a trailing odd key is dropped.
	zf := make([]zap.Field, 0, len(fields)/2)
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			zf = append(zf, zap.NamedError(key, err))
			continue
		}
		val := fmt.Sprintf("%v", fields[i+1])
		if redact {
			val = redactPIIValue(key, val)
		}
		zf = append(zf, zap.String(key, val))
	}
	ce.Write(zf...)
}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "email") {
		return RedactEmail(val)
	}
	if strings.Contains(key, "phone") || strings.Contains(key, "telefone") {
		return RedactPhone(val)
	}
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}
