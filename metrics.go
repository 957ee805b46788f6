package treemirror

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
//	    commandCounter   prometheus.Counter
//	    commandHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordCommand(method string, duration time.Duration, err error) {
//	    p.commandCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordCommand is called after each frontend command.
	// duration is the total time taken, err is nil if successful.
	RecordCommand(method string, duration time.Duration, err error)

	// RecordMutation is called for each tree mutation forwarded to the
	// frontend. kind is one of "insert", "remove", "attribute", "reload".
	RecordMutation(kind string)

	// RecordPush is called after each structure push.
	// nodes is the number of serialized nodes in the payload.
	RecordPush(nodes int)

	// RecordSearchBatch is called after each reported search result
	// batch, including empty ones.
	RecordSearchBatch(results int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCommand(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordMutation(string)                      {}
func (NoopMetricsCollector) RecordPush(int)                             {}
func (NoopMetricsCollector) RecordSearchBatch(int)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CommandCount      atomic.Int64
	CommandErrors     atomic.Int64
	CommandTotalNanos atomic.Int64
	MutationCount     atomic.Int64
	PushCount         atomic.Int64
	PushNodes         atomic.Int64
	SearchBatchCount  atomic.Int64
	SearchResultCount atomic.Int64
}

// RecordCommand implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCommand(method string, duration time.Duration, err error) {
	b.CommandCount.Add(1)
	b.CommandTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CommandErrors.Add(1)
	}
}

// RecordMutation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMutation(kind string) {
	b.MutationCount.Add(1)
}

// RecordPush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPush(nodes int) {
	b.PushCount.Add(1)
	b.PushNodes.Add(int64(nodes))
}

// RecordSearchBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearchBatch(results int) {
	b.SearchBatchCount.Add(1)
	b.SearchResultCount.Add(int64(results))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CommandCount:      b.CommandCount.Load(),
		CommandErrors:     b.CommandErrors.Load(),
		CommandAvgNanos:   b.getAvgCommandNanos(),
		MutationCount:     b.MutationCount.Load(),
		PushCount:         b.PushCount.Load(),
		PushNodes:         b.PushNodes.Load(),
		SearchBatchCount:  b.SearchBatchCount.Load(),
		SearchResultCount: b.SearchResultCount.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgCommandNanos() int64 {
	count := b.CommandCount.Load()
	if count == 0 {
		return 0
	}
	return b.CommandTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CommandCount      int64
	CommandErrors     int64
	CommandAvgNanos   int64
	MutationCount     int64
	PushCount         int64
	PushNodes         int64
	SearchBatchCount  int64
	SearchResultCount int64
}
