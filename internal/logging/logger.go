package logging

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger atomic.Pointer[zap.Logger]

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent.
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "OCAST_LOG_LEVEL"

// maxLoggedPayload caps how much of a datagram or message body ends up in a log line.
const maxLoggedPayload = 512

// Initialize creates the global logger with the given level.
// If level is empty, OCAST_LOG_LEVEL is consulted. If neither is set the
// logger stays silent.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger.Store(zap.NewNop())
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Store(l)

	return nil
}

// InitializeFromEnv initializes the logger from OCAST_LOG_LEVEL only.
func InitializeFromEnv() error {
	return Initialize("")
}

// SetLogger replaces the global logger. Intended for tests and for
// applications embedding the SDK that already own a zap logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// Named returns a child of the global logger for one component.
func Named(component string) *zap.Logger {
	return GetLogger().Named(component)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		// explicitly set but unrecognised
		return zapcore.InfoLevel
	}
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogDatagram logs one SSDP datagram. Bodies are only attached at debug level.
func LogDatagram(direction string, addr string, payload []byte) {
	l := GetLogger()
	if !l.Core().Enabled(zapcore.DebugLevel) {
		return
	}
	l.Debug("SSDP datagram",
		zap.String("direction", direction),
		zap.String("addr", addr),
		zap.Int("length", len(payload)),
		zap.String("content", truncate(string(payload))),
	)
}

// LogWebSocketMessage logs one text frame exchanged with a receiver.
func LogWebSocketMessage(url string, direction string, text string) {
	l := GetLogger()
	if !l.Core().Enabled(zapcore.DebugLevel) {
		return
	}
	l.Debug("WebSocket message",
		zap.String("url", url),
		zap.String("direction", direction),
		zap.Int("length", len(text)),
		zap.String("content", truncate(text)),
	)
}

// LogStateChange logs a lifecycle transition of an engine or client.
func LogStateChange(component string, from, to fmt.Stringer) {
	Info("State changed",
		zap.String("component", component),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
}

// LogDuration logs how long an operation took.
func LogDuration(msg string, started time.Time, fields ...zap.Field) {
	Debug(msg, append(fields, zap.Duration("elapsed", time.Since(started)))...)
}

func truncate(s string) string {
	if len(s) > maxLoggedPayload {
		return s[:maxLoggedPayload] + "..."
	}
	return s
}

// Sync flushes any buffered log entries
func Sync() {
	_ = GetLogger().Sync()
}
