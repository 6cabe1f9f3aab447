package license

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "extra-icons/license"
	MeterName  = "extra-icons/license"
)

// CheckMetrics holds the license check instruments
type CheckMetrics struct {
	Checks          metric.Int64Counter
	CheckDuration   metric.Float64Histogram
	Deactivations   metric.Int64Counter
	Reactivations   metric.Int64Counter
	LicenseRequests metric.Int64Counter
	Panics          metric.Int64Counter
	Activated       metric.Int64ObservableGauge
}

// NewCheckMetrics creates the license check instruments. A nil meter uses a
// no-op implementation.
func NewCheckMetrics(meter metric.Meter, state *ActivationState) (*CheckMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	m := &CheckMetrics{}
	var err error

	m.Checks, err = meter.Int64Counter(
		"license_checks_total",
		metric.WithDescription("Total number of periodic license checks by verdict"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create checks counter: %w", err)
	}

	m.CheckDuration, err = meter.Float64Histogram(
		"license_check_duration_seconds",
		metric.WithDescription("License check duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create check duration histogram: %w", err)
	}

	m.Deactivations, err = meter.Int64Counter(
		"license_deactivations_total",
		metric.WithDescription("Total number of times gated icons were disabled"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create deactivations counter: %w", err)
	}

	m.Reactivations, err = meter.Int64Counter(
		"license_reactivations_total",
		metric.WithDescription("Total number of times gated icons were re-enabled"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reactivations counter: %w", err)
	}

	m.LicenseRequests, err = meter.Int64Counter(
		"license_requests_total",
		metric.WithDescription("Total number of license prompts sent to the user"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create license requests counter: %w", err)
	}

	m.Panics, err = meter.Int64Counter(
		"license_check_panics_total",
		metric.WithDescription("Total number of license checks aborted by a panic"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create check panics counter: %w", err)
	}

	if state != nil {
		m.Activated, err = meter.Int64ObservableGauge(
			"license_activated",
			metric.WithDescription("1 when licensed icons are enabled"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				if state.Activated() {
					o.Observe(1)
				} else {
					o.Observe(0)
				}
				return nil
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create activation gauge: %w", err)
		}
	}

	return m, nil
}

// recordCheck records one completed check
func (m *CheckMetrics) recordCheck(ctx context.Context, productCode string, verdict Verdict, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("product_code", productCode),
		attribute.String("verdict", verdict.String()),
	)
	m.Checks.Add(ctx, 1, attrs)
	m.CheckDuration.Record(ctx, duration.Seconds(), attrs)
}

// startCheckSpan starts a span for one license check
func startCheckSpan(ctx context.Context, productCode string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "license.check",
		trace.WithAttributes(attribute.String("license.product_code", productCode)))
}

// endCheckSpan annotates and ends a check span
func endCheckSpan(span trace.Span, verdict Verdict) {
	span.SetAttributes(attribute.String("license.verdict", verdict.String()))
	if verdict == Unknown {
		span.SetStatus(codes.Error, "license check inconclusive")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
