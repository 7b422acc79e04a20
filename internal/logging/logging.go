// Package logging builds the zap loggers used across nufeed. Degraded source
// operations report failures here rather than raising them to their callers.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger. Verbose enables debug level and console encoding;
// otherwise output is info-level JSON.
func New(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	encoding := "json"
	if verbose {
		level = zapcore.DebugLevel
		encoding = "console"
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      verbose,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig(verbose),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func encoderConfig(verbose bool) zapcore.EncoderConfig {
	if verbose {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
	return zap.NewProductionEncoderConfig()
}
