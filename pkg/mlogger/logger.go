// Package mlogger builds the zap loggers used across the fileserver
package mlogger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LogLevelInfo sets the log level to info
	LogLevelInfo = "info"

	// LogLevelDebug sets the log level to debug
	LogLevelDebug = "debug"

	// LogLevelNone disables logging entirely
	LogLevelNone = "none"
)

// New returns a production zap logger at the requested level. "none" and
// "off" yield a no-op logger. Stack traces stay off: failed sources are
// expected operational events, not program errors.
func New(logLevel string) (*zap.Logger, error) {
	switch logLevel {
	case LogLevelNone, "off":
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	zapConfig.DisableStacktrace = true
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapConfig.Build()
}

// MustNew returns a zap logger with the specified level or panics
func MustNew(logLevel string) *zap.Logger {
	l, err := New(logLevel)
	if err != nil {
		panic(err)
	}
	return l
}
