package vecmem

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/ajitpratap0/vecmem/pkg/memerrors"
	"github.com/ajitpratap0/vecmem/pkg/metrics"
)

// entry pairs a buffer with its in-use flag. Entries live for the lifetime
// of the underlying buffer; they are removed only by ReleaseUnused.
type entry[V any] struct {
	inUse bool
	v     *V
}

// Registry is the storage backing GrowingMemory for one element type: an
// ordered sequence of entries guarded by a single mutex. All strategy
// instances created for the same element type share one registry by default
// (see SharedRegistry), so buffers allocated at one call site are reused at
// unrelated ones.
//
// Entries are never reordered. A buffer's identity never changes while it is
// in use; only ReleaseUnused destroys buffers.
type Registry[V any] struct {
	mu      sync.Mutex
	entries []entry[V]
	inUse   int

	newFn   func() *V
	destroy func(*V)
	name    string // element type name, used as metrics/log label
}

// RegistryOption configures a Registry.
type RegistryOption[V any] func(*Registry[V])

// WithConstructor sets the function used to construct new buffers. The
// default constructs the zero value with new(V).
func WithConstructor[V any](fn func() *V) RegistryOption[V] {
	return func(r *Registry[V]) {
		r.newFn = fn
	}
}

// WithDestructor sets a hook invoked on buffers destroyed by ReleaseUnused,
// for element types that hold resources beyond garbage-collected memory.
func WithDestructor[V any](fn func(*V)) RegistryOption[V] {
	return func(r *Registry[V]) {
		r.destroy = fn
	}
}

// NewRegistry creates an empty private registry. Most callers want the
// process-wide SharedRegistry instead; a private registry isolates a
// subsystem's buffer traffic from the rest of the process.
func NewRegistry[V any](opts ...RegistryOption[V]) *Registry[V] {
	r := &Registry[V]{
		name:  typeName[V](),
		newFn: func() *V { return new(V) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// acquire returns the first unused buffer, or constructs a new one. The scan
// and the mark (or the construction and the append) form one critical
// section, so two goroutines can never claim the same entry or both allocate
// for the same logical slot.
func (r *Registry[V]) acquire() (v *V, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if !r.entries[i].inUse {
			r.entries[i].inUse = true
			r.inUse++
			r.updateGauges()
			metrics.AcquiresTotal.WithLabelValues(r.name, metrics.OutcomeReuse).Inc()
			return r.entries[i].v, false
		}
	}

	v = r.newFn()
	r.entries = append(r.entries, entry[V]{inUse: true, v: v})
	r.inUse++
	r.updateGauges()
	metrics.AcquiresTotal.WithLabelValues(r.name, metrics.OutcomeAlloc).Inc()
	return v, true
}

// release marks the entry holding v unused. The registry is left untouched
// when v is not registered or already unused; that state is a caller bug
// (double release or a foreign buffer), reported as not_allocated.
func (r *Registry[V]) release(v *V) error {
	if v == nil {
		return memerrors.New(memerrors.ErrorTypeValidation, "cannot release a nil buffer").
			WithDetail("element_type", r.name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].v == v && r.entries[i].inUse {
			r.entries[i].inUse = false
			r.inUse--
			r.updateGauges()
			metrics.ReleasesTotal.WithLabelValues(r.name).Inc()
			return nil
		}
	}

	metrics.ReleaseErrorsTotal.WithLabelValues(r.name).Inc()
	return memerrors.New(memerrors.ErrorTypeNotAllocated,
		"buffer was not allocated from this memory pool, or was already released").
		WithDetail("element_type", r.name).
		WithDetail("entries", len(r.entries))
}

// Preallocate grows the registry to hold at least n buffers, constructing
// the missing ones unused. It never shrinks and does nothing once the
// registry already holds n entries.
func (r *Registry[V]) Preallocate(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.entries) < n {
		r.entries = append(r.entries, entry[V]{v: r.newFn()})
	}
	r.updateGauges()
}

// ReleaseUnused destroys and removes every entry not currently in use and
// returns the number of buffers destroyed. Buffers handed out by Acquire are
// untouched; calling this with no unused entries is a no-op. Safe to call at
// any time.
func (r *Registry[V]) ReleaseUnused() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	released := 0
	for _, e := range r.entries {
		if e.inUse {
			kept = append(kept, e)
			continue
		}
		if r.destroy != nil {
			r.destroy(e.v)
		}
		released++
	}
	// Drop trailing slots so the collector can reclaim the buffers.
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = entry[V]{}
	}
	r.entries = kept
	r.updateGauges()
	if released > 0 {
		metrics.UnusedReleasedTotal.WithLabelValues(r.name).Add(float64(released))
	}
	return released
}

// RegistryStats is a point-in-time snapshot of a registry.
type RegistryStats struct {
	// Entries is the number of buffers the registry holds, in use or not
	Entries int `json:"entries"`
	// InUse is the number of buffers currently handed out
	InUse int `json:"in_use"`
}

// Stats returns a snapshot of the registry's bookkeeping.
func (r *Registry[V]) Stats() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RegistryStats{
		Entries: len(r.entries),
		InUse:   r.inUse,
	}
}

// InUse returns the number of buffers currently handed out. Entries still in
// use at process teardown are leaks.
func (r *Registry[V]) InUse() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inUse
}

// memoryReporter is implemented by element types that can report the bytes
// they hold; vector.Vector does. Other types fall back to their shallow size.
type memoryReporter interface {
	MemoryConsumption() uint64
}

// MemoryConsumption returns the bytes consumed by the registry and every
// buffer it holds, including buffers currently handed out.
func (r *Registry[V]) MemoryConsumption() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := uint64(unsafe.Sizeof(*r))
	for _, e := range r.entries {
		total += uint64(unsafe.Sizeof(e))
		if rep, ok := any(e.v).(memoryReporter); ok {
			total += rep.MemoryConsumption()
		} else {
			total += uint64(unsafe.Sizeof(*e.v))
		}
	}
	return total
}

// updateGauges refreshes the per-type Prometheus gauges. Caller holds r.mu.
func (r *Registry[V]) updateGauges() {
	metrics.PoolEntries.WithLabelValues(r.name).Set(float64(len(r.entries)))
	metrics.PoolInUse.WithLabelValues(r.name).Set(float64(r.inUse))
}

// typeName returns the element type's name for metrics and log labels.
func typeName[V any]() string {
	return reflect.TypeOf((*V)(nil)).Elem().String()
}

// sweeper is the type-erased view of a registry used by the shared store to
// sweep unused buffers across every element type.
type sweeper interface {
	ReleaseUnused() int
}

// sharedRegistries holds the process-wide registry for each element type.
// Registries are created lazily on first use and persist until process
// teardown.
var sharedRegistries = struct {
	mu     sync.Mutex
	byType map[reflect.Type]sweeper
}{byType: make(map[reflect.Type]sweeper)}

// SharedRegistry returns the process-wide registry for element type V,
// creating it on first use. Every GrowingMemory constructed without an
// explicit registry draws from this one, so unrelated call sites share
// buffer storage for the same element type.
func SharedRegistry[V any]() *Registry[V] {
	key := reflect.TypeOf((*V)(nil)).Elem()

	sharedRegistries.mu.Lock()
	defer sharedRegistries.mu.Unlock()

	if r, ok := sharedRegistries.byType[key]; ok {
		return r.(*Registry[V])
	}
	r := NewRegistry[V]()
	sharedRegistries.byType[key] = r
	return r
}

// ReleaseUnusedMemory destroys every buffer in the shared registry for
// element type V that is not currently in use and returns how many were
// destroyed. Outstanding buffers are unaffected.
func ReleaseUnusedMemory[V any]() int {
	return SharedRegistry[V]().ReleaseUnused()
}

// ReleaseAllUnusedMemory sweeps the shared registries of every element type
// and returns the total number of buffers destroyed.
func ReleaseAllUnusedMemory() int {
	sharedRegistries.mu.Lock()
	defer sharedRegistries.mu.Unlock()

	released := 0
	for _, r := range sharedRegistries.byType {
		released += r.ReleaseUnused()
	}
	return released
}
