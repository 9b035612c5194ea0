package strindex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    recordCounter  prometheus.Counter
//	    bulkHistogram  prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordRecord(duration time.Duration, err error) {
//	    p.recordCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordRecord is called after each single record operation.
	// duration is the total time taken, err is nil if successful.
	RecordRecord(duration time.Duration, err error)

	// RecordBulkRecord is called after each bulk record operation.
	// count is the number of pairs attempted, failed is the number that
	// failed, duration is the total time taken.
	RecordBulkRecord(count, failed int, duration time.Duration)

	// RecordResolve is called after each forward lookup.
	RecordResolve(duration time.Duration, err error)

	// RecordReverseResolve is called after each reverse lookup.
	RecordReverseResolve(duration time.Duration, err error)

	// RecordCache is called after each batch cache consultation with the
	// number of keys served from cache and the number that missed.
	RecordCache(hits, misses int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRecord(time.Duration, error)         {}
func (NoopMetricsCollector) RecordBulkRecord(int, int, time.Duration)  {}
func (NoopMetricsCollector) RecordResolve(time.Duration, error)        {}
func (NoopMetricsCollector) RecordReverseResolve(time.Duration, error) {}
func (NoopMetricsCollector) RecordCache(int, int)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RecordCount         atomic.Int64
	RecordErrors        atomic.Int64
	RecordTotalNanos    atomic.Int64
	BulkRecordCount     atomic.Int64
	BulkRecordFailed    atomic.Int64
	BulkRecordKeys      atomic.Int64
	ResolveCount        atomic.Int64
	ResolveErrors       atomic.Int64
	ReverseResolveCount atomic.Int64
	CacheHits           atomic.Int64
	CacheMisses         atomic.Int64
}

func (b *BasicMetricsCollector) RecordRecord(d time.Duration, err error) {
	b.RecordCount.Add(1)
	b.RecordTotalNanos.Add(int64(d))
	if err != nil {
		b.RecordErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordBulkRecord(count, failed int, _ time.Duration) {
	b.BulkRecordCount.Add(1)
	b.BulkRecordKeys.Add(int64(count))
	b.BulkRecordFailed.Add(int64(failed))
}

func (b *BasicMetricsCollector) RecordResolve(_ time.Duration, err error) {
	b.ResolveCount.Add(1)
	if err != nil {
		b.ResolveErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordReverseResolve(time.Duration, error) {
	b.ReverseResolveCount.Add(1)
}

func (b *BasicMetricsCollector) RecordCache(hits, misses int) {
	b.CacheHits.Add(int64(hits))
	b.CacheMisses.Add(int64(misses))
}
