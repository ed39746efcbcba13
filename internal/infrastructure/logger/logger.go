package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mobilize/core/internal/infrastructure/config"
)

const serviceName = "mobilize"

// Logger is the structured logger shared by the store, the services and the HTTP layer
type Logger struct {
	*zap.SugaredLogger
}

// New builds a logger from configuration. Every entry carries the service name.
func New(cfg config.LoggerConfig) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      outputPaths(cfg),
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]interface{}{"service": serviceName},
	}
	zapConfig.EncoderConfig.TimeKey = "ts"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Format != "json" {
		zapConfig.Encoding = "console"
		zapConfig.Development = true
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

func outputPaths(cfg config.LoggerConfig) []string {
	switch {
	case cfg.Output == "file" && cfg.Filename != "":
		return []string{cfg.Filename}
	case cfg.Output == "stderr":
		return []string{"stderr"}
	default:
		return []string{"stdout"}
	}
}

// NewNop returns a logger that discards everything, for tests and CLI helpers
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger
func FromZap(l *zap.Logger) *Logger {
	return &Logger{SugaredLogger: l.Sugar()}
}

// WithFields adds structured fields to the logger
func (l *Logger) WithFields(fields ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *Logger {
	return l.WithFields("error", err.Error())
}

// WithRequestID adds a request ID field to the logger
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.WithFields("request_id", requestID)
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithFields("component", component)
}

// WithArea scopes the logger to one store area
func (l *Logger) WithArea(area string) *Logger {
	return l.WithFields("area", area)
}

// LogRequest logs a served API request
func (l *Logger) LogRequest(method, uri string, status int, latency time.Duration, ip, userAgent string) {
	l.Infow("Request served",
		"method", method,
		"uri", uri,
		"status", status,
		"latency_ms", milliseconds(latency),
		"remote_ip", ip,
		"user_agent", userAgent,
	)
}

// LogStoreWrite logs the outcome of one write of the JSON document
func (l *Logger) LogStoreWrite(path string, bytes int, version uint64, duration time.Duration, err error) {
	fields := []interface{}{
		"path", path,
		"bytes", bytes,
		"version", version,
		"duration_ms", milliseconds(duration),
	}

	if err != nil {
		l.Errorw("Store write failed", append(fields, "error", err.Error())...)
		return
	}
	l.Debugw("Store write completed", fields...)
}

// LogFlushDeferred records mutations that stay in memory until a later write succeeds
func (l *Logger) LogFlushDeferred(areas []string, err error) {
	l.Warnw("Mutation kept in memory, store write deferred", "areas", areas, "error", err.Error())
}

// LogAreaChange logs a mutation of one record of a store area
func (l *Logger) LogAreaChange(area, action, id string, fields ...interface{}) {
	l.Infow("Area changed", append([]interface{}{"area", area, "action", action, "id", id}, fields...)...)
}

// LogTreasuryMovement logs money entering or leaving the caisse or the ledger
func (l *Logger) LogTreasuryMovement(ledger, kind, id string, amount, solde float64) {
	l.Infow("Treasury movement",
		"ledger", ledger,
		"type", kind,
		"transaction_id", id,
		"amount", amount,
		"solde", solde,
	)
}

// LogAuthEvent logs a rejected or notable operator authentication attempt
func (l *Logger) LogAuthEvent(event, ip string, fields ...interface{}) {
	l.Warnw("Operator auth event", append([]interface{}{"event", event, "ip", ip}, fields...)...)
}

// Close flushes any buffered log entries
func (l *Logger) Close() error {
	return l.SugaredLogger.Sync()
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
