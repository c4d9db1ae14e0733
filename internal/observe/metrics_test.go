package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// counterValue sums the data points of an int64 sum metric whose attributes
// contain every key/value in want.
func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string, want ...attribute.KeyValue) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is %T, want Sum[int64]", name, met.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if hasAttrs(dp.Attributes, want) {
			total += dp.Value
		}
	}
	return total
}

func hasAttrs(set attribute.Set, want []attribute.KeyValue) bool {
	for _, kv := range want {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func histogramCount(t *testing.T, rm metricdata.ResourceMetrics, name string) uint64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("metric %q is %T, want Histogram[float64]", name, met.Data)
	}
	var n uint64
	for _, dp := range hist.DataPoints {
		n += dp.Count
	}
	return n
}

func TestRecordProviderCall(t *testing.T) {
	t.Parallel()
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderCall(ctx, "openai", KindChat, 120*time.Millisecond, nil)
	m.RecordProviderCall(ctx, "gemini", KindTranscription, 2*time.Second, errors.New("boom"))
	m.RecordProviderCall(ctx, "gemini", KindTranscription, time.Second, nil)

	rm := collect(t, reader)

	if got := histogramCount(t, rm, "pronuncia.chat.duration"); got != 1 {
		t.Errorf("chat duration count = %d, want 1", got)
	}
	if got := histogramCount(t, rm, "pronuncia.transcription.duration"); got != 2 {
		t.Errorf("transcription duration count = %d, want 2", got)
	}
	if got := counterValue(t, rm, "pronuncia.provider.requests",
		attribute.String("provider", "gemini"), attribute.String("status", "error")); got != 1 {
		t.Errorf("gemini error requests = %d, want 1", got)
	}
	if got := counterValue(t, rm, "pronuncia.provider.requests",
		attribute.String("status", "ok")); got != 2 {
		t.Errorf("ok requests = %d, want 2", got)
	}
	if got := counterValue(t, rm, "pronuncia.provider.errors",
		attribute.String("kind", KindTranscription)); got != 1 {
		t.Errorf("transcription errors = %d, want 1", got)
	}
}

func TestScoringCounters(t *testing.T) {
	t.Parallel()
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordScore(ctx, "levenshtein")
	m.RecordScore(ctx, "levenshtein")
	m.RecordScore(ctx, "ai-gemini")
	m.RecordFallback(ctx, "gemini", "malformed")
	m.RecordCacheLookup(ctx, "hit")
	m.RecordCacheLookup(ctx, "miss")
	m.RecordPracticeItems(ctx, "leitura_rapida", 5)

	rm := collect(t, reader)

	tests := []struct {
		name   string
		metric string
		attrs  []attribute.KeyValue
		want   int64
	}{
		{"levenshtein scores", "pronuncia.scoring.results", []attribute.KeyValue{attribute.String("method", "levenshtein")}, 2},
		{"ai scores", "pronuncia.scoring.results", []attribute.KeyValue{attribute.String("method", "ai-gemini")}, 1},
		{"fallbacks", "pronuncia.scoring.fallbacks", []attribute.KeyValue{attribute.String("reason", "malformed")}, 1},
		{"cache hits", "pronuncia.scoring.cache.lookups", []attribute.KeyValue{attribute.String("result", "hit")}, 1},
		{"practice items", "pronuncia.practice.items", []attribute.KeyValue{attribute.String("category", "leitura_rapida")}, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := counterValue(t, rm, tc.metric, tc.attrs...); got != tc.want {
				t.Errorf("%s = %d, want %d", tc.metric, got, tc.want)
			}
		})
	}
}

func TestDefaultMetrics_Singleton(t *testing.T) {
	t.Parallel()
	if DefaultMetrics() != DefaultMetrics() {
		t.Error("DefaultMetrics returned different instances")
	}
}
