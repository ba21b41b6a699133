// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger embeds *zap.Logger and keeps a sugared view for printf-style call sites.
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// New builds a logger. format "json" selects the production encoder, anything else the
// console one. output is a zap sink such as "stdout" or a file path.
func New(level, format, output string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if output == "" {
		output = "stdout"
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{output}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return Wrap(z), nil
}

// Wrap adapts an existing zap logger, e.g. zap.NewNop() in tests.
func Wrap(z *zap.Logger) *Logger {
	return &Logger{Logger: z, sugar: z.Sugar()}
}

// Nop discards everything.
func Nop() *Logger {
	return Wrap(zap.NewNop())
}

func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
}

func (l *Logger) Sugar() *zap.SugaredLogger { return l.sugar }

func (l *Logger) Infof(template string, args ...any)  { l.sugar.Infof(template, args...) }
func (l *Logger) Warnf(template string, args ...any)  { l.sugar.Warnf(template, args...) }
func (l *Logger) Errorf(template string, args ...any) { l.sugar.Errorf(template, args...) }
func (l *Logger) Debugf(template string, args ...any) { l.sugar.Debugf(template, args...) }

// Sync flushes buffered entries. Errors from syncing stdout are ignored.
func (l *Logger) Sync() {
	_ = l.Logger.Sync()
}
