package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer opens a span around a service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is closed with the operation's error.
type TraceSpan interface {
	End(err error)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// LogTracer writes one debug entry per finished span, or a warning when
// the operation failed.
type LogTracer struct {
	log *zap.Logger
}

// NewLogTracer returns a tracer logging to l.
func NewLogTracer(l *zap.Logger) *LogTracer {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogTracer{log: l.With(zap.String("component", "trace"))}
}

// Start implements Tracer.
func (t *LogTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &logSpan{log: t.log, operation: operation, started: time.Now()}
}

type logSpan struct {
	log       *zap.Logger
	operation string
	started   time.Time
}

func (s *logSpan) End(err error) {
	fields := []zap.Field{
		zap.String("operation", s.operation),
		zap.Duration("took", time.Since(s.started)),
	}
	if err != nil {
		s.log.Warn("span failed", append(fields, zap.Error(err))...)
		return
	}
	s.log.Debug("span", fields...)
}
