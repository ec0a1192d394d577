// Package logging provides the process-wide structured logger.
package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with fields and helpers specific to the
// analysis pipeline.
type Logger struct {
	*zap.Logger
	service     string
	version     string
	environment string
}

// Options configures a new Logger.
type Options struct {
	Level       string
	Service     string
	Version     string
	Environment string
	Format      string // json or console
}

// New builds a Logger from the given options, filling in defaults for
// anything left zero-valued.
func New(opts Options) (*Logger, error) {
	if opts.Level == "" {
		opts.Level = "info"
	}
	if opts.Service == "" {
		opts.Service = "qoo10-analyzer"
	}
	if opts.Version == "" {
		opts.Version = "0.1.0"
	}
	if opts.Environment == "" {
		opts.Environment = "development"
	}
	if opts.Format == "" {
		opts.Format = "console"
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if opts.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)

	base := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).With(
		zap.String("service", opts.Service),
		zap.String("version", opts.Version),
		zap.String("environment", opts.Environment),
	)

	return &Logger{
		Logger:      base,
		service:     opts.Service,
		version:     opts.Version,
		environment: opts.Environment,
	}, nil
}

// WithJob returns a child logger tagged with a job id.
func (l *Logger) WithJob(jobID string) *Logger {
	return l.with(zap.String("job_id", jobID))
}

// WithStage returns a child logger tagged with the current pipeline stage.
func (l *Logger) WithStage(stage string) *Logger {
	return l.with(zap.String("stage", stage))
}

// WithError returns a child logger carrying an error field.
func (l *Logger) WithError(err error) *Logger {
	return l.with(zap.Error(err))
}

func (l *Logger) with(fields ...zap.Field) *Logger {
	return &Logger{
		Logger:      l.Logger.With(fields...),
		service:     l.service,
		version:     l.version,
		environment: l.environment,
	}
}

// HTTPRequestLogger records one access-log line.
func (l *Logger) HTTPRequestLogger(method, path string, status int, duration time.Duration) {
	l.Info("http request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	)
}

// CacheLogger records a cache lookup outcome.
func (l *Logger) CacheLogger(operation, key string, hit bool) {
	l.Debug("cache",
		zap.String("operation", operation),
		zap.String("key", key),
		zap.Bool("hit", hit),
	)
}

// PerformanceLogger records a timed operation's duration, used for
// fetch/parse/analyze stage timing.
func (l *Logger) PerformanceLogger(operation string, duration time.Duration) {
	l.Info("performance",
		zap.String("operation", operation),
		zap.Duration("duration", duration),
	)
}

var global *Logger

// Init sets the process-wide logger.
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	global = l
	zap.ReplaceGlobals(l.Logger)
	return nil
}

// Global returns the process-wide logger, falling back to a bare
// development logger if Init was never called (used by tests).
func Global() *Logger {
	if global == nil {
		l, _ := New(Options{})
		global = l
	}
	return global
}
