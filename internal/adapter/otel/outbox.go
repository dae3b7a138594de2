package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// TracingOutbox wraps a domain.NotificationOutbox with OpenTelemetry tracing.
type TracingOutbox struct {
	next   domain.NotificationOutbox
	tracer trace.Tracer
}

// Compile-time check: TracingOutbox implements domain.NotificationOutbox.
var _ domain.NotificationOutbox = (*TracingOutbox)(nil)

// NewTracingOutbox creates a tracing decorator around the given outbox.
func NewTracingOutbox(next domain.NotificationOutbox) *TracingOutbox {
	return &TracingOutbox{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (o *TracingOutbox) Enqueue(ctx context.Context, n domain.Notification) error {
	ctx, span := o.tracer.Start(ctx, "NotificationOutbox.Enqueue",
		trace.WithAttributes(
			attribute.String("notification.kind", n.Kind),
			attribute.String("notification.recipient_id", n.RecipientID),
		),
	)
	defer span.End()

	err := o.next.Enqueue(ctx, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// TracingTxRunner wraps a domain.TxRunner so every lifecycle transaction
// shows up as a single span with its nested store spans underneath.
type TracingTxRunner struct {
	next   domain.TxRunner
	tracer trace.Tracer
}

// Compile-time check: TracingTxRunner implements domain.TxRunner.
var _ domain.TxRunner = (*TracingTxRunner)(nil)

// NewTracingTxRunner creates a tracing decorator around the given runner.
func NewTracingTxRunner(next domain.TxRunner) *TracingTxRunner {
	return &TracingTxRunner{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingTxRunner) InTx(ctx context.Context, fn func(ctx context.Context, s domain.Stores) error) error {
	ctx, span := r.tracer.Start(ctx, "TxRunner.InTx")
	defer span.End()

	err := r.next.InTx(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
