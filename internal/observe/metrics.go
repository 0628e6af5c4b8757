// Package observe provides application-wide observability primitives for
// Tonearbiter: OpenTelemetry metrics, distributed tracing, and structured
// logging helpers.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
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

// meterName is the instrumentation scope name used for all Tonearbiter metrics.
const meterName = "github.com/kvasirlabs/tonearbiter"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// ClassifyDuration tracks classifier round-trip latency.
	ClassifyDuration metric.Float64Histogram

	// ClassifierRequests counts classifier calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ClassifierRequests metric.Int64Counter

	// ClassifierErrors counts failed classifier calls. Use with attribute:
	//   attribute.String("provider", ...)
	ClassifierErrors metric.Int64Counter

	// ArbitrationFlips counts verdicts flipped by an arbitration rule.
	// Use with attribute: attribute.String("rule", ...)
	ArbitrationFlips metric.Int64Counter

	// Verdicts counts arbitrated verdicts by final label.
	// Use with attribute: attribute.String("label", ...)
	Verdicts metric.Int64Counter

	// ResponsesSelected counts bot replies by selection kind
	// (greeting, goodbye, follow_up, topic, generic, fallback).
	ResponsesSelected metric.Int64Counter

	// TrajectoryReports counts end-of-conversation analyses by trajectory.
	TrajectoryReports metric.Int64Counter

	// ActiveConversations tracks the number of open conversations.
	ActiveConversations metric.Int64UpDownCounter

	// ConversationMessages records user-message counts of finished conversations.
	ConversationMessages metric.Int64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// classifier round trips: local sidecars answer in tens of milliseconds,
// hosted LLM backends in single-digit seconds.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// messageCountBuckets covers typical support-conversation lengths.
var messageCountBuckets = []float64{1, 2, 3, 5, 8, 13, 21, 34}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ClassifyDuration, err = m.Float64Histogram("tonearbiter.classify.duration",
		metric.WithDescription("Latency of classifier round trips."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ClassifierRequests, err = m.Int64Counter("tonearbiter.classifier.requests",
		metric.WithDescription("Total classifier calls by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ClassifierErrors, err = m.Int64Counter("tonearbiter.classifier.errors",
		metric.WithDescription("Total failed classifier calls by provider."),
	); err != nil {
		return nil, err
	}

	if met.ArbitrationFlips, err = m.Int64Counter("tonearbiter.arbitration.flips",
		metric.WithDescription("Verdicts flipped by an arbitration rule, by rule name."),
	); err != nil {
		return nil, err
	}
	if met.Verdicts, err = m.Int64Counter("tonearbiter.verdicts",
		metric.WithDescription("Arbitrated verdicts by final label."),
	); err != nil {
		return nil, err
	}

	if met.ResponsesSelected, err = m.Int64Counter("tonearbiter.responses.selected",
		metric.WithDescription("Bot replies by selection kind."),
	); err != nil {
		return nil, err
	}

	if met.TrajectoryReports, err = m.Int64Counter("tonearbiter.trajectory.reports",
		metric.WithDescription("End-of-conversation analyses by trajectory."),
	); err != nil {
		return nil, err
	}

	if met.ActiveConversations, err = m.Int64UpDownCounter("tonearbiter.active_conversations",
		metric.WithDescription("Number of open conversations."),
	); err != nil {
		return nil, err
	}

	if met.ConversationMessages, err = m.Int64Histogram("tonearbiter.conversation.messages",
		metric.WithDescription("User-message count of finished conversations."),
		metric.WithExplicitBucketBoundaries(messageCountBuckets...),
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordClassifierRequest records one classifier call with the standard
// attribute set.
func (m *Metrics) RecordClassifierRequest(ctx context.Context, provider, status string) {
	m.ClassifierRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordFlip records one arbitration flip for the named rule.
func (m *Metrics) RecordFlip(ctx context.Context, rule string) {
	m.ArbitrationFlips.Add(ctx, 1,
		metric.WithAttributes(attribute.String("rule", rule)),
	)
}

// RecordVerdict records one arbitrated verdict by final label.
func (m *Metrics) RecordVerdict(ctx context.Context, label string) {
	m.Verdicts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("label", label)),
	)
}

// RecordResponse records one selected reply by selection kind.
func (m *Metrics) RecordResponse(ctx context.Context, kind string) {
	m.ResponsesSelected.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
