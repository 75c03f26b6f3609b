package observability

import (
	"context"
	"time"

	"marketplace-gateway/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the otel meter provider and the submission instruments.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracing        *Tracing
	meter          otelmetric.Meter
	submitCounter  otelmetric.Int64Counter
	submitDuration otelmetric.Float64Histogram
}

// New wires the otel meter to the prometheus registry and, when endpoint is set,
// the tracer to Jaeger. Failures degrade to no-op instruments.
func New(serviceName, jaegerEndpoint string, log logger.Logger) *Observability {
	o := &Observability{}

	tracing, err := NewTracing(serviceName, jaegerEndpoint)
	if err != nil {
		log.Warn("tracing disabled", map[string]interface{}{"error": err.Error()})
	} else {
		o.tracing = tracing
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("otel prometheus exporter unavailable", map[string]interface{}{"error": err.Error()})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	submitCounter, _ := meter.Int64Counter(
		"forms.submitted",
		otelmetric.WithDescription("Number of form submissions"),
	)

	submitDuration, _ := meter.Float64Histogram(
		"forms.duration",
		otelmetric.WithDescription("Form submission duration"),
		otelmetric.WithUnit("ms"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.submitCounter = submitCounter
	o.submitDuration = submitDuration
	return o
}

// RecordSubmission counts one finished submission with its outcome.
func (o *Observability) RecordSubmission(ctx context.Context, form, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("form", form),
		attribute.String("outcome", outcome),
	)
	if o.submitCounter != nil {
		o.submitCounter.Add(ctx, 1, attrs)
	}
	if o.submitDuration != nil {
		o.submitDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracing != nil {
		_ = o.tracing.Shutdown(ctx)
	}
}
