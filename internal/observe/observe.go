// Package observe records operation outcomes for parsing, staging, model
// runs and archiving. Recorders and tracers are injected into the runner and
// workspace layers; the zero configuration is a no-op.
package observe

import (
	"context"
	"time"
)

// MetricsRecorder receives one call per finished operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer opens spans around operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, Span)
}

// Span is closed exactly once with the operation's error.
type Span interface {
	End(err error)
}

// Nop is a MetricsRecorder and Tracer that discards everything.
type Nop struct{}

func (Nop) Observe(context.Context, string, bool, time.Duration) {}

func (Nop) Start(ctx context.Context, _ string) (context.Context, Span) { return ctx, nopSpan{} }

type nopSpan struct{}

func (nopSpan) End(error) {}

// Multi fans Observe out to several recorders.
type Multi []MetricsRecorder

func (m Multi) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range m {
		if r != nil {
			r.Observe(ctx, operation, success, duration)
		}
	}
}

// Track runs fn inside a span and reports its outcome to metrics. Either
// argument may be nil.
func Track(ctx context.Context, metrics MetricsRecorder, tracer Tracer, operation string, fn func(context.Context) error) error {
	if metrics == nil {
		metrics = Nop{}
	}
	if tracer == nil {
		tracer = Nop{}
	}
	ctx, span := tracer.Start(ctx, operation)
	started := time.Now()
	err := fn(ctx)
	metrics.Observe(ctx, operation, err == nil, time.Since(started))
	span.End(err)
	return err
}
