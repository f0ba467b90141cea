package logging

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields carries structured context for a single log entry.
type Fields map[string]interface{}

// Config controls the process-wide zap core.
type Config struct {
	Level    string
	Encoding string
}

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init builds the shared zap logger. Components created afterwards inherit it.
func Init(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return err
		}
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Encoding == "console" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	mu.Lock()
	base = l
	mu.Unlock()
	return nil
}

// Sync flushes buffered entries of the shared logger.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// Logger is a component-scoped structured logger.
type Logger struct {
	z *zap.Logger
}

// New returns a logger tagged with the given component name.
func New(component string) *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &Logger{z: base.With(zap.String("component", component))}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// With returns a child logger that always carries fields.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{z: l.z.With(toZap(fields)...)}
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	l.z.Debug(msg, toZap(fields...)...)
}

func (l *Logger) Info(msg string, fields ...Fields) {
	l.z.Info(msg, toZap(fields...)...)
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	l.z.Warn(msg, toZap(fields...)...)
}

func (l *Logger) Error(msg string, fields ...Fields) {
	l.z.Error(msg, toZap(fields...)...)
}

func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.z.Fatal(msg, toZap(fields...)...)
}

// Zap exposes the underlying logger for libraries that want one.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

func toZap(fields ...Fields) []zap.Field {
	n := 0
	for _, f := range fields {
		n += len(f)
	}
	if n == 0 {
		return nil
	}

	out := make([]zap.Field, 0, n)
	for _, f := range fields {
		keys := make([]string, 0, len(f))
		for k := range f {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err, ok := f[k].(error); ok {
				out = append(out, zap.NamedError(k, err))
				continue
			}
			out = append(out, zap.Any(k, f[k]))
		}
	}
	return out
}
