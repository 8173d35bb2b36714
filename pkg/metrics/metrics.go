// Package metrics provides observability for the vecmem pools using
// Prometheus metrics. It exposes counters and gauges for pool traffic
// so that registry growth and buffer leaks show up on dashboards long
// before they show up as out-of-memory kills.
//
// # Overview
//
// The metrics package provides:
//   - Prometheus-compatible metrics collection
//   - Pre-defined metrics for pool traffic per element type
//   - Thread-safe metric recording
//   - Automatic metric registration via promauto
//
// # Basic Usage
//
//	// Record a pool acquire that reused an existing buffer
//	metrics.AcquiresTotal.WithLabelValues("vector.Vector[float64]", metrics.OutcomeReuse).Inc()
//
//	// Track a timed section
//	timer := metrics.NewTimer("solve")
//	solve()
//	duration := timer.Stop()
//
// # Metric Types
//
// Counter: Monotonically increasing values (e.g., total acquires)
// Gauge: Values that can go up or down (e.g., buffers currently in use)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Acquire outcome label values.
const (
	// OutcomeReuse marks an acquire satisfied by an unused pooled buffer.
	OutcomeReuse = "reuse"
	// OutcomeAlloc marks an acquire that had to construct a new buffer.
	OutcomeAlloc = "alloc"
)

var (
	// AcquiresTotal counts pool acquires per element type.
	// Labels: type (element type name), outcome (reuse/alloc)
	//
	// Example:
	//	metrics.AcquiresTotal.WithLabelValues("vector.Vector[float64]", metrics.OutcomeAlloc).Inc()
	AcquiresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vecmem_acquires_total",
			Help: "Total number of buffer acquires",
		},
		[]string{"type", "outcome"},
	)

	// ReleasesTotal counts successful buffer releases per element type.
	ReleasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vecmem_releases_total",
			Help: "Total number of successful buffer releases",
		},
		[]string{"type"},
	)

	// ReleaseErrorsTotal counts rejected releases (double release or
	// releasing a buffer the pool never handed out).
	ReleaseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vecmem_release_errors_total",
			Help: "Total number of releases rejected as not allocated here",
		},
		[]string{"type"},
	)

	// PoolEntries tracks the number of entries held by each registry.
	PoolEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vecmem_pool_entries",
			Help: "Number of buffers held by the pool registry",
		},
		[]string{"type"},
	)

	// PoolInUse tracks the number of registry entries currently handed out.
	PoolInUse = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vecmem_pool_in_use",
			Help: "Number of pooled buffers currently in use",
		},
		[]string{"type"},
	)

	// UnusedReleasedTotal counts buffers destroyed by release-unused sweeps.
	UnusedReleasedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vecmem_unused_released_total",
			Help: "Total number of unused buffers destroyed on demand",
		},
		[]string{"type"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs or metrics.
//
// Example:
//
//	timer := metrics.NewTimer("cycle")
//	runCycles()
//	duration := timer.Stop()
//	logger.Info("cycles finished", zap.Duration("duration", duration))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Stop stops the timer and returns the elapsed duration since creation.
// The timer can be stopped multiple times, each returning the total
// elapsed time since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
