// Package observe provides application-wide observability primitives for
// pronuncia: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all pronuncia metrics.
const meterName = "github.com/MrWong99/pronuncia"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms ---

	// TranscriptionDuration tracks speech-to-text latency.
	TranscriptionDuration metric.Float64Histogram

	// ChatDuration tracks chat-completion latency.
	ChatDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// ScoringResults counts produced scores by method ("levenshtein", "ai-gemini", ...).
	ScoringResults metric.Int64Counter

	// ScoringFallbacks counts degradations of the qualitative scorer to the
	// deterministic one, by reason ("unavailable", "transport", "malformed").
	ScoringFallbacks metric.Int64Counter

	// ScoreCacheLookups counts qualitative-score cache lookups by result ("hit", "miss", "error").
	ScoreCacheLookups metric.Int64Counter

	// PracticeItems counts generated practice items by category.
	PracticeItems metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// remote transcription and chat calls.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscriptionDuration, err = m.Float64Histogram("pronuncia.transcription.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ChatDuration, err = m.Float64Histogram("pronuncia.chat.duration",
		metric.WithDescription("Latency of chat completions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("pronuncia.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("pronuncia.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("pronuncia.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.ScoringResults, err = m.Int64Counter("pronuncia.scoring.results",
		metric.WithDescription("Total pronunciation scores by method."),
	); err != nil {
		return nil, err
	}
	if met.ScoringFallbacks, err = m.Int64Counter("pronuncia.scoring.fallbacks",
		metric.WithDescription("Qualitative scores that degraded to the similarity scorer, by reason."),
	); err != nil {
		return nil, err
	}
	if met.ScoreCacheLookups, err = m.Int64Counter("pronuncia.scoring.cache.lookups",
		metric.WithDescription("Qualitative score cache lookups by result."),
	); err != nil {
		return nil, err
	}
	if met.PracticeItems, err = m.Int64Counter("pronuncia.practice.items",
		metric.WithDescription("Generated practice items by category."),
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
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
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

// RecordProviderRequest records a provider request counter increment with the
// standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordProviderCall records latency on the histogram matching kind
// ("chat" or "transcription") and the request/error counters for one call.
func (m *Metrics) RecordProviderCall(ctx context.Context, provider, kind string, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	switch kind {
	case KindChat:
		m.ChatDuration.Record(ctx, elapsed.Seconds(), attrs)
	case KindTranscription:
		m.TranscriptionDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
	status := "ok"
	if err != nil {
		status = "error"
		m.RecordProviderError(ctx, provider, kind)
	}
	m.RecordProviderRequest(ctx, provider, kind, status)
}

// Provider kinds used as the "kind" attribute.
const (
	KindChat          = "chat"
	KindTranscription = "transcription"
)

// RecordScore records one produced score.
func (m *Metrics) RecordScore(ctx context.Context, method string) {
	m.ScoringResults.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

// RecordFallback records one qualitative-to-deterministic degradation.
func (m *Metrics) RecordFallback(ctx context.Context, provider, reason string) {
	m.ScoringFallbacks.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("reason", reason),
		),
	)
}

// RecordCacheLookup records a qualitative-score cache lookup.
func (m *Metrics) RecordCacheLookup(ctx context.Context, result string) {
	m.ScoreCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordPracticeItems records n generated items for category.
func (m *Metrics) RecordPracticeItems(ctx context.Context, category string, n int) {
	m.PracticeItems.Add(ctx, int64(n), metric.WithAttributes(attribute.String("category", category)))
}
