package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger wraps a sugared zap logger. Methods take a message followed by
// alternating keys and values.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// NewZapLogger builds a JSON production logger, or a console logger at
// debug level when debug is set.
func NewZapLogger(debug bool) *ZapLogger {
	config := zap.NewProductionConfig()
	if debug {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		logger = zap.NewExample()
	}
	return &ZapLogger{logger: logger.Sugar()}
}

// New logs to an arbitrary core, e.g. an observer in tests.
func New(core zapcore.Core) *ZapLogger {
	return &ZapLogger{logger: zap.New(core).Sugar()}
}

func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop().Sugar()}
}

func (l *ZapLogger) With(args ...interface{}) *ZapLogger {
	return &ZapLogger{logger: l.logger.With(args...)}
}

func (l *ZapLogger) Info(msg string, args ...interface{})  { l.logger.Infow(msg, args...) }
func (l *ZapLogger) Error(msg string, args ...interface{}) { l.logger.Errorw(msg, args...) }
func (l *ZapLogger) Debug(msg string, args ...interface{}) { l.logger.Debugw(msg, args...) }
func (l *ZapLogger) Warn(msg string, args ...interface{})  { l.logger.Warnw(msg, args...) }

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

type ctxKey struct{}

// NewContext attaches a request-scoped logger to ctx. It survives
// context.WithoutCancel, so work detached from a request still logs under
// that request's fields.
func NewContext(ctx context.Context, l *ZapLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by NewContext, or fallback.
func FromContext(ctx context.Context, fallback *ZapLogger) *ZapLogger {
	if l, ok := ctx.Value(ctxKey{}).(*ZapLogger); ok && l != nil {
		return l
	}
	return fallback
}
