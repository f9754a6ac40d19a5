package observability

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a JSON production logger for "production" and a console
// development logger for anything else.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}
	return zap.NewDevelopment()
}

// WithOTelLogs tees logger into the global OpenTelemetry logger provider, so
// entries written with a span context are exported next to the trace.
func WithOTelLogs(logger *zap.Logger, scope string) *zap.Logger {
	otelCore := otelzap.NewCore(scope, otelzap.WithLoggerProvider(global.GetLoggerProvider()))
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, otelCore)
	}))
}
