package listflow

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement this interface to integrate with monitoring
// systems like Prometheus.
type MetricsCollector interface {
	// RecordQuery is called after each query executor invocation.
	RecordQuery(duration time.Duration, err error)

	// RecordCacheLookup is called after each cache probe.
	RecordCacheLookup(hit bool)

	// RecordRender is called when a render run reaches a terminal
	// state. err is nil unless the run failed.
	RecordRender(total int, duration time.Duration, err error)

	// RecordInvalidation is called after an explicit invalidation with
	// the number of entries removed.
	RecordInvalidation(removed int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordQuery(time.Duration, error)       {}
func (NoopMetricsCollector) RecordCacheLookup(bool)                 {}
func (NoopMetricsCollector) RecordRender(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordInvalidation(int)                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external
// dependencies.
type BasicMetricsCollector struct {
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryTotalNanos  atomic.Int64
	CacheHits        atomic.Int64
	CacheMisses      atomic.Int64
	RenderCount      atomic.Int64
	RenderErrors     atomic.Int64
	RenderTotalNanos atomic.Int64
	RenderItems      atomic.Int64
	Invalidations    atomic.Int64
	InvalidatedCount atomic.Int64
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordCacheLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheLookup(hit bool) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}

// RecordRender implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRender(total int, duration time.Duration, err error) {
	b.RenderCount.Add(1)
	b.RenderItems.Add(int64(total))
	b.RenderTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RenderErrors.Add(1)
	}
}

// RecordInvalidation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInvalidation(removed int) {
	b.Invalidations.Add(1)
	b.InvalidatedCount.Add(int64(removed))
}
