package logging

import (
	"errors"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every entry emitted by loggers built here.
const ServiceName = "change-monitor"

// Logger is the structured logger handed to handlers and binaries.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
	// Zap exposes the underlying logger for gin-contrib/zap and the
	// service constructors, which take a *zap.Logger.
	Zap() *zap.Logger
	Sync() error
}

// Options selects how a Logger encodes and where it writes.
type Options struct {
	// Environment "development" gives coloured console output; anything
	// else is treated as production.
	Environment string
	Level       string
	// Encoding is "json" or "console"; empty picks the environment default.
	Encoding string
	// Component names the binary (api, scheduler, cli) on every entry.
	Component string
	// OutputPaths overrides zap's default of stderr.
	OutputPaths []string
}

type zapLogger struct {
	logger *zap.Logger
}

// NewLoggerWithOptions builds a zap-backed Logger.
func NewLoggerWithOptions(opts Options) (Logger, error) {
	config := baseConfig(opts.Environment)

	switch opts.Encoding {
	case "json":
		config.Encoding = "json"
		config.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	case "console":
		config.Encoding = "console"
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	if len(opts.OutputPaths) > 0 {
		config.OutputPaths = opts.OutputPaths
	}

	fields := []zap.Field{zap.String("service", ServiceName)}
	if opts.Component != "" {
		fields = append(fields, zap.String("component", opts.Component))
	}

	logger, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(fields...),
	)
	if err != nil {
		return nil, err
	}
	return &zapLogger{logger: logger}, nil
}

func baseConfig(environment string) zap.Config {
	if environment == "development" {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return config
	}

	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Prune runs and request bursts can repeat the same entry many times.
	config.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	return config
}

// Flush syncs the logger, ignoring the EINVAL/ENOTTY that terminals and
// pipes return for fsync.
func Flush(l Logger) error {
	err := l.Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.logger.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.logger.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.logger.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.logger.Error(msg, fields...) }

// Fatal logs and exits the process.
func (l *zapLogger) Fatal(msg string, fields ...zap.Field) { l.logger.Fatal(msg, fields...) }

func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{logger: l.logger.With(fields...)}
}

// Zap returns the wrapped logger without the wrapper's caller skip.
func (l *zapLogger) Zap() *zap.Logger {
	return l.logger.WithOptions(zap.AddCallerSkip(-1))
}

func (l *zapLogger) Sync() error { return l.logger.Sync() }

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(string, ...zap.Field) {}
func (l *NoOpLogger) Info(string, ...zap.Field)  {}
func (l *NoOpLogger) Warn(string, ...zap.Field)  {}
func (l *NoOpLogger) Error(string, ...zap.Field) {}
func (l *NoOpLogger) Fatal(string, ...zap.Field) {}
func (l *NoOpLogger) With(...zap.Field) Logger   { return l }
func (l *NoOpLogger) Zap() *zap.Logger           { return zap.NewNop() }
func (l *NoOpLogger) Sync() error                { return nil }

func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}
