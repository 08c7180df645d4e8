// Package observe exposes the counter's OpenTelemetry metrics.
//
// Instruments are created from any metric.MeterProvider. InitProvider wires
// an SDK provider to a Prometheus registry so the metrics can be scraped;
// when metrics are disabled a noop provider is used and every call is free.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/fmueller/jabcount"

// Metrics holds the counter's instruments. Safe for concurrent use.
type Metrics struct {
	// Transcripts counts finalized transcripts handed to the scanner.
	Transcripts metric.Int64Counter

	// Matches counts scanner hits. Attribute: method.
	Matches metric.Int64Counter

	// Batches counts non-empty batches by outcome (accepted, cooldown).
	Batches metric.Int64Counter

	// TranscribeDuration tracks speech engine latency per audio chunk.
	TranscribeDuration metric.Float64Histogram
}

var latencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Transcripts, err = m.Int64Counter("jabcount.transcripts",
		metric.WithDescription("Finalized transcripts scanned."),
	); err != nil {
		return nil, err
	}
	if met.Matches, err = m.Int64Counter("jabcount.matches",
		metric.WithDescription("Target word occurrences found by the scanner."),
	); err != nil {
		return nil, err
	}
	if met.Batches, err = m.Int64Counter("jabcount.batches",
		metric.WithDescription("Detection batches by cooldown outcome."),
	); err != nil {
		return nil, err
	}
	if met.TranscribeDuration, err = m.Float64Histogram("jabcount.transcribe.duration",
		metric.WithDescription("Latency of speech-to-text per audio chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// ObserveTotal registers a gauge reporting read() on every collection.
func ObserveTotal(mp metric.MeterProvider, read func() int64) error {
	m := mp.Meter(meterName)
	_, err := m.Int64ObservableGauge("jabcount.total",
		metric.WithDescription("Current detection total."),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(read())
			return nil
		}),
	)
	return err
}

func (m *Metrics) RecordTranscript(ctx context.Context) {
	m.Transcripts.Add(ctx, 1)
}

func (m *Metrics) RecordMatch(ctx context.Context, method string) {
	m.Matches.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

func (m *Metrics) RecordBatch(ctx context.Context, outcome string) {
	m.Batches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordTranscribe(ctx context.Context, seconds float64) {
	m.TranscribeDuration.Record(ctx, seconds)
}
