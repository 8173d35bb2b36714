package vecmem

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ajitpratap0/vecmem/pkg/logger"
	"github.com/ajitpratap0/vecmem/pkg/memerrors"
)

// GrowingMemory is the pooling strategy. Acquire hands out the first unused
// buffer from the backing registry, constructing a new one only when none is
// free; Release marks the buffer unused but keeps it for later reuse. The
// registry only ever grows, so a solver that repeatedly needs k temporaries
// settles on k pooled buffers and stops allocating.
//
// Instances are cheap: they own no buffers, only bookkeeping counters. By
// default every instance for one element type shares the process-wide
// registry, so creating a GrowingMemory wherever one is needed carries no
// performance penalty.
//
// Close performs the leak check; a strategy closed while buffers it acquired
// are still outstanding leaves those registry entries marked in use forever.
type GrowingMemory[V any] struct {
	registry *Registry[V]
	logStats bool

	stats struct {
		totalAllocations int64
		outstanding      int64
	}
}

// GrowingOption configures a GrowingMemory.
type GrowingOption[V any] func(*growingConfig[V])

type growingConfig[V any] struct {
	registry    *Registry[V]
	initialSize int
	logStats    bool
}

// WithRegistry backs the strategy with an explicitly constructed registry
// instead of the process-wide shared one, isolating its buffer traffic.
func WithRegistry[V any](r *Registry[V]) GrowingOption[V] {
	return func(cfg *growingConfig[V]) {
		cfg.registry = r
	}
}

// WithInitialSize preallocates the backing registry to hold at least n
// buffers, so the first n acquires never construct inside the critical
// section.
func WithInitialSize[V any](n int) GrowingOption[V] {
	return func(cfg *growingConfig[V]) {
		cfg.initialSize = n
	}
}

// WithStatisticsLogging makes Close log the instance's allocation counters.
func WithStatisticsLogging[V any]() GrowingOption[V] {
	return func(cfg *growingConfig[V]) {
		cfg.logStats = true
	}
}

// NewGrowingMemory creates a pooling strategy backed by the shared registry
// for element type V, or by the registry supplied with WithRegistry.
func NewGrowingMemory[V any](opts ...GrowingOption[V]) (*GrowingMemory[V], error) {
	var cfg growingConfig[V]
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.initialSize < 0 {
		return nil, memerrors.New(memerrors.ErrorTypeValidation, "initial size must not be negative").
			WithDetail("initial_size", cfg.initialSize)
	}

	r := cfg.registry
	if r == nil {
		r = SharedRegistry[V]()
	}
	if cfg.initialSize > 0 {
		r.Preallocate(cfg.initialSize)
	}

	return &GrowingMemory[V]{
		registry: r,
		logStats: cfg.logStats,
	}, nil
}

// Acquire returns a buffer of unspecified size and contents; callers must
// reinitialize it before use. Unused pooled buffers are reused first-fit;
// only when none is free is a new buffer constructed and added to the pool.
func (m *GrowingMemory[V]) Acquire() *V {
	v, created := m.registry.acquire()
	if created {
		atomic.AddInt64(&m.stats.totalAllocations, 1)
	}
	atomic.AddInt64(&m.stats.outstanding, 1)
	return v
}

// Release returns a buffer to the pool for reuse. The buffer must have been
// obtained from this strategy or another strategy sharing the same registry;
// anything else, including a second release of the same buffer, returns a
// not_allocated error and leaves the pool untouched.
func (m *GrowingMemory[V]) Release(v *V) error {
	if err := m.registry.release(v); err != nil {
		return err
	}
	atomic.AddInt64(&m.stats.outstanding, -1)
	return nil
}

// Stats is a snapshot of one strategy instance's counters.
type Stats struct {
	// TotalAllocations counts acquires that constructed a new buffer.
	// It never decreases.
	TotalAllocations int64 `json:"total_allocations"`
	// Outstanding counts buffers acquired through this instance and not
	// yet released.
	Outstanding int64 `json:"outstanding"`
}

// Stats returns the instance's counters. At every point Outstanding equals
// acquires issued minus releases completed on this instance.
func (m *GrowingMemory[V]) Stats() Stats {
	return Stats{
		TotalAllocations: atomic.LoadInt64(&m.stats.totalAllocations),
		Outstanding:      atomic.LoadInt64(&m.stats.outstanding),
	}
}

// Registry exposes the backing registry, shared or private.
func (m *GrowingMemory[V]) Registry() *Registry[V] {
	return m.registry
}

// MemoryConsumption returns the bytes held by the backing registry,
// including buffers currently handed out.
func (m *GrowingMemory[V]) MemoryConsumption() uint64 {
	return m.registry.MemoryConsumption()
}

// Close checks the instance's bookkeeping at teardown. Closing with
// outstanding buffers is a caller bug: the registry keeps those entries
// marked in use with no owner left to release them. The leak is logged at
// warning level and returned as a leak error carrying the outstanding count;
// the pool itself stays consistent.
func (m *GrowingMemory[V]) Close() error {
	stats := m.Stats()

	if m.logStats {
		logger.Info("vector memory statistics",
			zap.String("element_type", m.registry.name),
			zap.Int64("total_allocations", stats.TotalAllocations),
			zap.Int64("outstanding", stats.Outstanding),
		)
	}

	if stats.Outstanding != 0 {
		logger.Warn("vector memory closed with outstanding buffers",
			zap.String("element_type", m.registry.name),
			zap.Int64("outstanding", stats.Outstanding),
		)
		return memerrors.New(memerrors.ErrorTypeLeak, "memory strategy closed with outstanding buffers").
			WithDetail("element_type", m.registry.name).
			WithDetail("outstanding", stats.Outstanding)
	}
	return nil
}
