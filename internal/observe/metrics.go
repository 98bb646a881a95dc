// Package observe provides application-wide observability primitives for
// voiceselect: OpenTelemetry metrics, tracing helpers, trace-aware logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported in
// Prometheus format via [InitProvider]. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voiceselect metrics.
const meterName = "github.com/MrWong99/voiceselect"

// Callback outcomes recorded on [Metrics.CallbackRequests].
const (
	StatusHit      = "hit"
	StatusMiss     = "miss"
	StatusOversize = "oversize"
)

// Surface outcomes recorded on [Metrics.SurfaceOutcomes].
const (
	OutcomeSubmitted = "submitted"
	OutcomeDismissed = "dismissed"
	OutcomeError     = "error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Override serving ---

	// CallbackDuration tracks the time to serve one intercepted hash,
	// including the file read.
	CallbackDuration metric.Float64Histogram

	// CallbackRequests counts intercepted hash requests. Attributes:
	//   attribute.String("variant", ...), attribute.String("status", ...)
	CallbackRequests metric.Int64Counter

	// --- Bootstrap ---

	// ResolveDuration tracks how long sizing the variants of one bank takes.
	ResolveDuration metric.Float64Histogram

	// RegisteredHashes tracks the number of hashes installed with the host.
	RegisteredHashes metric.Int64UpDownCounter

	// SkippedSlots counts slots left unregistered, either because no variant
	// exists or because their hash collided with an earlier slot.
	SkippedSlots metric.Int64Counter

	// --- Configuration ---

	// ChordDetections counts activation chords observed. Attribute:
	//   attribute.String("source", ...)
	ChordDetections metric.Int64Counter

	// SurfaceOutcomes counts how configuration surfaces closed. Attribute:
	//   attribute.String("outcome", ...)
	SurfaceOutcomes metric.Int64Counter

	// SelectionUpdates counts applied submission records. Attribute:
	//   attribute.String("variant", ...)
	SelectionUpdates metric.Int64Counter

	// RejectedRecords counts submission records that were skipped or
	// defaulted. Attribute: attribute.String("reason", ...)
	RejectedRecords metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// ioBuckets defines histogram bucket boundaries (in seconds) for local file
// reads of a few hundred kilobytes to a few megabytes.
var ioBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.CallbackDuration, err = m.Float64Histogram("voiceselect.callback.duration",
		metric.WithDescription("Latency of serving an intercepted asset hash."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(ioBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ResolveDuration, err = m.Float64Histogram("voiceselect.variant.resolve.duration",
		metric.WithDescription("Latency of sizing all variants of one bank."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(ioBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("voiceselect.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.CallbackRequests, err = m.Int64Counter("voiceselect.callback.requests",
		metric.WithDescription("Intercepted asset requests by selected variant and outcome."),
	); err != nil {
		return nil, err
	}
	if met.SkippedSlots, err = m.Int64Counter("voiceselect.bootstrap.skipped_slots",
		metric.WithDescription("Slots left unregistered because no variant file exists or their hash collided."),
	); err != nil {
		return nil, err
	}
	if met.ChordDetections, err = m.Int64Counter("voiceselect.chord.detections",
		metric.WithDescription("Activation chords observed by controller source."),
	); err != nil {
		return nil, err
	}
	if met.SurfaceOutcomes, err = m.Int64Counter("voiceselect.surface.outcomes",
		metric.WithDescription("Configuration surface closes by outcome."),
	); err != nil {
		return nil, err
	}
	if met.SelectionUpdates, err = m.Int64Counter("voiceselect.selection.updates",
		metric.WithDescription("Selection records applied by variant."),
	); err != nil {
		return nil, err
	}
	if met.RejectedRecords, err = m.Int64Counter("voiceselect.selection.rejected_records",
		metric.WithDescription("Submission records skipped or defaulted, by reason."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.RegisteredHashes, err = m.Int64UpDownCounter("voiceselect.registered_hashes",
		metric.WithDescription("Number of asset hashes installed with the host."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

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

// RecordCallback records one intercepted request with its selected variant
// and outcome.
func (m *Metrics) RecordCallback(ctx context.Context, variant, status string, seconds float64) {
	m.CallbackRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("variant", variant),
			attribute.String("status", status),
		),
	)
	m.CallbackDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordChord records one chord detection from source ("handheld" or
// "slot-N").
func (m *Metrics) RecordChord(ctx context.Context, source string) {
	m.ChordDetections.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// RecordSurfaceOutcome records how a configuration surface closed.
func (m *Metrics) RecordSurfaceOutcome(ctx context.Context, outcome string) {
	m.SurfaceOutcomes.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordSelectionUpdate records one applied selection record.
func (m *Metrics) RecordSelectionUpdate(ctx context.Context, variant string) {
	m.SelectionUpdates.Add(ctx, 1,
		metric.WithAttributes(attribute.String("variant", variant)),
	)
}

// RecordRejectedRecord records one skipped or defaulted submission record.
func (m *Metrics) RecordRejectedRecord(ctx context.Context, reason string) {
	m.RejectedRecords.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}
