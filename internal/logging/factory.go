package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects and tunes the logger implementation.
type Options struct {
	// Backend is "slog" (default) or "zap".
	Backend string
	// Level is one of debug, info, warn, error.
	Level string
	// Dev switches zap to its development console encoder.
	Dev bool
}

// New builds a Logger writing to w. The returned sync func flushes buffered
// output and should be deferred by the caller.
func New(opts Options, w io.Writer) (Logger, func() error, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "slog":
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(opts.Level)})
		return NewSlogLogger(slog.New(h)), func() error { return nil }, nil
	case "zap":
		l, err := newZap(opts, w)
		if err != nil {
			return nil, nil, err
		}
		zl := NewZapLogger(l)
		return zl, zl.Sync, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

func newZap(opts Options, w io.Writer) (*zap.Logger, error) {
	lvl := zapLevel(opts.Level)
	if opts.Dev {
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(w), lvl)
		return zap.New(core, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.WarnLevel)), nil
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func slogLevel(l string) slog.Level {
	switch strings.ToLower(l) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func zapLevel(l string) zapcore.Level {
	switch strings.ToLower(l) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Discard returns a Logger that drops everything. Useful in tests.
func Discard() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
