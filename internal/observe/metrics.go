// Package observe provides application-wide observability primitives for
// gobark: OpenTelemetry metrics, tracing, and structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all gobark metrics.
const meterName = "github.com/voxtools/gobark"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SynthesisDuration tracks backend speech synthesis latency.
	SynthesisDuration metric.Float64Histogram

	// ExtractionDuration tracks voice profile extraction latency.
	ExtractionDuration metric.Float64Histogram

	// RestyleDuration tracks voice restyling latency.
	RestyleDuration metric.Float64Histogram

	// ProviderRequests counts synthesis backend API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts synthesis backend errors. Use with attribute:
	//   attribute.String("provider", ...)
	ProviderErrors metric.Int64Counter

	// SegmentsSynthesized counts synthesized audio segments by kind
	// (say, long, conversation).
	SegmentsSynthesized metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Synthesis
// on CPU runs for tens of seconds, so the buckets reach further than typical
// request-latency buckets.
var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SynthesisDuration, err = m.Float64Histogram("gobark.synthesis.duration",
		metric.WithDescription("Latency of backend speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ExtractionDuration, err = m.Float64Histogram("gobark.extraction.duration",
		metric.WithDescription("Latency of voice profile extraction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RestyleDuration, err = m.Float64Histogram("gobark.restyle.duration",
		metric.WithDescription("Latency of voice restyling."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ProviderRequests, err = m.Int64Counter("gobark.provider.requests",
		metric.WithDescription("Total synthesis backend requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("gobark.provider.errors",
		metric.WithDescription("Total synthesis backend errors by provider."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsSynthesized, err = m.Int64Counter("gobark.segments.synthesized",
		metric.WithDescription("Total synthesized audio segments by kind."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordProviderRequest records a backend request counter increment with the
// standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a backend error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}

// RecordSegments records synthesized segments by generation kind.
func (m *Metrics) RecordSegments(ctx context.Context, kind string, n int64) {
	m.SegmentsSynthesized.Add(ctx, n,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
