package vstoxx

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "vstoxxcli.vstoxx"
	MeterName  = "vstoxxcli.vstoxx"
)

// Recorder observes a computation. Calls are made from the goroutine that
// called Compute.
type Recorder interface {
	ComputeStarted(ctx context.Context, rows int, opts Options) context.Context
	RowFailed(ctx context.Context, err *RowError)
	ComputeFinished(ctx context.Context, computed int, elapsed time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) ComputeStarted(ctx context.Context, _ int, _ Options) context.Context {
	return ctx
}
func (noopRecorder) RowFailed(context.Context, *RowError)                       {}
func (noopRecorder) ComputeFinished(context.Context, int, time.Duration, error) {}

// OTelRecorder records spans and metrics through OpenTelemetry
type OTelRecorder struct {
	tracer          trace.Tracer
	rowsComputed    metric.Int64Counter
	rowErrors       metric.Int64Counter
	computeDuration metric.Float64Histogram
}

// NewOTelRecorder creates a recorder on the given meter.
// A nil meter uses the global meter provider.
func NewOTelRecorder(meter metric.Meter) (*OTelRecorder, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}

	rowsComputed, err := meter.Int64Counter(
		"vstoxx_rows_computed_total",
		metric.WithDescription("Total number of rows with a computed index value"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rows counter: %w", err)
	}

	rowErrors, err := meter.Int64Counter(
		"vstoxx_row_errors_total",
		metric.WithDescription("Total number of rows that failed to compute"),
	)
	if err != nil {
		return nil, fmt.Errorf("create row errors counter: %w", err)
	}

	computeDuration, err := meter.Float64Histogram(
		"vstoxx_compute_duration_seconds",
		metric.WithDescription("Duration of a full index computation in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &OTelRecorder{
		tracer:          otel.Tracer(TracerName),
		rowsComputed:    rowsComputed,
		rowErrors:       rowErrors,
		computeDuration: computeDuration,
	}, nil
}

// ComputeStarted opens the compute span
func (r *OTelRecorder) ComputeStarted(ctx context.Context, rows int, opts Options) context.Context {
	ctx, _ = r.tracer.Start(ctx, "vstoxx.compute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("vstoxx.rows", rows),
			attribute.String("vstoxx.mode", string(opts.Mode)),
			attribute.Int("vstoxx.workers", opts.Workers),
		),
	)
	return ctx
}

// RowFailed counts a failed row and adds an event to the span
func (r *OTelRecorder) RowFailed(ctx context.Context, err *RowError) {
	r.rowErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(err.Kind))))
	trace.SpanFromContext(ctx).AddEvent("row failed", trace.WithAttributes(
		attribute.Int("row.index", err.Index),
		attribute.String("row.kind", string(err.Kind)),
	))
}

// ComputeFinished records totals and ends the span
func (r *OTelRecorder) ComputeFinished(ctx context.Context, computed int, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.rowsComputed.Add(ctx, int64(computed))
	r.computeDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("status", status)))

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int("vstoxx.computed", computed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
