// Package observe provides application-wide observability primitives for
// the tour-guide daemon: OpenTelemetry metrics with a Prometheus exporter
// bridge so everything remains scrapable via the standard /metrics endpoint.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/danif1973/tour-guide-mobile"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// GeoQueryDuration tracks geodata provider query latency.
	GeoQueryDuration metric.Float64Histogram

	// SummarizerDuration tracks LLM summarization latency.
	SummarizerDuration metric.Float64Histogram

	// GeoQueries counts geodata queries. Use with attribute:
	//   attribute.String("status", "ok"|"error"|"empty")
	GeoQueries metric.Int64Counter

	// RadiusExpansions counts outer radius-expansion steps taken after an
	// empty or failed attempt.
	RadiusExpansions metric.Int64Counter

	// TriggerDecisions counts trigger-engine decisions per fix. Use with
	// attribute: attribute.String("decision", ...).
	TriggerDecisions metric.Int64Counter

	// Summaries counts summarization outcomes. Use with attribute:
	//   attribute.String("status", "accepted"|"rejected"|"error")
	Summaries metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attribute:
	//   attribute.String("kind", "geo"|"summarizer")
	ProviderErrors metric.Int64Counter

	// CyclesInFlight tracks the number of generation cycles currently
	// running (0 or 1 per engine).
	CyclesInFlight metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// public-API and LLM round-trips.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.GeoQueryDuration, err = m.Float64Histogram("tourguide.geo.query.duration",
		metric.WithDescription("Latency of geodata provider queries."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SummarizerDuration, err = m.Float64Histogram("tourguide.summarizer.duration",
		metric.WithDescription("Latency of LLM summarization calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.GeoQueries, err = m.Int64Counter("tourguide.geo.queries",
		metric.WithDescription("Total geodata queries by status."),
	); err != nil {
		return nil, err
	}
	if met.RadiusExpansions, err = m.Int64Counter("tourguide.geo.radius_expansions",
		metric.WithDescription("Total radius-expansion steps."),
	); err != nil {
		return nil, err
	}
	if met.TriggerDecisions, err = m.Int64Counter("tourguide.trigger.decisions",
		metric.WithDescription("Total trigger decisions by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Summaries, err = m.Int64Counter("tourguide.summaries",
		metric.WithDescription("Total summarization outcomes by status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("tourguide.provider.errors",
		metric.WithDescription("Total provider errors by kind."),
	); err != nil {
		return nil, err
	}

	if met.CyclesInFlight, err = m.Int64UpDownCounter("tourguide.cycles_in_flight",
		metric.WithDescription("Number of generation cycles currently running."),
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

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
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

// RecordGeoQuery records one geodata query outcome.
func (m *Metrics) RecordGeoQuery(ctx context.Context, status string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.GeoQueries.Add(ctx, 1, attrs)
	m.GeoQueryDuration.Record(ctx, seconds, attrs)
}

// RecordTriggerDecision records one trigger-engine decision.
func (m *Metrics) RecordTriggerDecision(ctx context.Context, decision string) {
	m.TriggerDecisions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("decision", decision)),
	)
}

// RecordSummary records one summarization outcome.
func (m *Metrics) RecordSummary(ctx context.Context, status string, seconds float64) {
	m.Summaries.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
	m.SummarizerDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordProviderError records one provider error.
func (m *Metrics) RecordProviderError(ctx context.Context, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
