package logger

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	fieldRequestID = "request_id"
	fieldContract  = "contract"
)

// Config selects how the root Logger is built.
type Config struct {
	Development bool
	Level       string // debug, info, warn, error
	Format      string // "text" for console output, otherwise JSON
	File        string // optional extra output path
}

// New builds a root Logger.
func New(cfg Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}

	if strings.ToUpper(cfg.Format) == "TEXT" {
		zc.Encoding = "console"
	} else {
		zc.Encoding = "json"
	}

	if len(cfg.Level) > 0 {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, errors.Wrapf(err, "log level %s", cfg.Level)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	if len(cfg.File) > 0 {
		zc.OutputPaths = append(zc.OutputPaths, cfg.File)
	}

	return zc.Build()
}

// ContextWithConfig returns a new request Context whose Loggers derive from a root Logger built
// from cfg.
func ContextWithConfig(ctx context.Context, cfg Config) (context.Context, error) {
	base, err := New(cfg)
	if err != nil {
		return ctx, err
	}

	return ContextWithBase(ctx, base), nil
}

// ContextWithBase sets the root Logger and returns a new request Context derived from it.
func ContextWithBase(ctx context.Context, base *zap.Logger) context.Context {
	ctx = context.WithValue(ctx, KeyBase, base)
	return ContextWithRequestID(ctx, "")
}

// ContextWithNoLogger returns a Context that discards all log entries.
func ContextWithNoLogger(ctx context.Context) context.Context {
	return ContextWithBase(ctx, zap.NewNop())
}

// NewLoggerFromContext returns the Logger from the Context. If a Logger doesn't
// exist one is added.
func NewLoggerFromContext(ctx context.Context) *zap.Logger {
	logger := ctx.Value(KeyLogger)

	if logger == nil {
		return newLogger(ctx)
	}

	return logger.(*zap.Logger)
}

// newLogger returns a Logger with the RequestID from the Context as a
// field.
func newLogger(ctx context.Context) *zap.Logger {
	var logger *zap.Logger
	if base, ok := ctx.Value(KeyBase).(*zap.Logger); ok {
		logger = base
	} else {
		logger, _ = zap.NewProduction()
	}

	logger = logger.With(zap.String(fieldRequestID, RequestIDFromContext(ctx)))

	if contract := ContractFromContext(ctx); len(contract) > 0 {
		logger = logger.With(zap.String(fieldContract, contract))
	}

	return logger
}

// Info adds an info level entry to the log.
func Info(ctx context.Context, format string, values ...interface{}) {
	NewLoggerFromContext(ctx).WithOptions(zap.AddCallerSkip(1)).Sugar().Infof(format, values...)
}

// Verbose adds a debug level entry to the log.
func Verbose(ctx context.Context, format string, values ...interface{}) {
	NewLoggerFromContext(ctx).WithOptions(zap.AddCallerSkip(1)).Sugar().Debugf(format, values...)
}

// Warn adds a warning level entry to the log.
func Warn(ctx context.Context, format string, values ...interface{}) {
	NewLoggerFromContext(ctx).WithOptions(zap.AddCallerSkip(1)).Sugar().Warnf(format, values...)
}

// Error adds an error level entry to the log.
func Error(ctx context.Context, format string, values ...interface{}) {
	NewLoggerFromContext(ctx).WithOptions(zap.AddCallerSkip(1)).Sugar().Errorf(format, values...)
}

// Fatal adds a fatal level entry to the log and exits.
func Fatal(ctx context.Context, format string, values ...interface{}) {
	NewLoggerFromContext(ctx).WithOptions(zap.AddCallerSkip(1)).Sugar().Fatalf(format, values...)
}
