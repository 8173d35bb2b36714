// Package vecmem provides reusable temporary-buffer management for the vector
// objects used inside iterative algorithms. Nested solvers repeatedly need
// short-lived working vectors; allocating and destroying large numeric
// buffers on every inner-loop iteration is expensive and fragments the heap.
// This package keeps a shared pool of reusable buffers instead, handed out
// and reclaimed through a narrow, type-agnostic protocol.
//
// The package provides:
//   - The two-operation Memory protocol all strategies implement
//   - PrimitiveMemory, the allocate-on-acquire baseline strategy
//   - GrowingMemory, a mutex-guarded pool shared per element type
//   - Handle, a scoped wrapper guaranteeing exactly one release per acquire
//   - Registry, the per-type storage backing the growing strategy
//
// Example usage:
//
//	mem, _ := vecmem.NewGrowingMemory[vector.Vector[float64]]()
//	defer mem.Close()
//
//	h := vecmem.NewHandle[vector.Vector[float64]](mem)
//	defer h.Close()
//
//	v := h.Get()
//	v.Reinit(n) // size and contents are unspecified after acquire
package vecmem

// Memory is the allocation protocol for temporary vectors. Iterative
// algorithms depend on this interface rather than allocating directly, so
// the pooling strategy can be swapped without changing call sites.
//
// Acquire returns a buffer whose size and contents are unspecified; callers
// must reinitialize it before use. It never returns nil: either a buffer is
// produced or the underlying allocator takes the process down.
//
// Release gives up all claim to a buffer previously returned by Acquire on
// the same strategy (or on a strategy sharing the same registry). Releasing
// anything else is a caller bug and is reported as a not_allocated error,
// never silently ignored.
type Memory[V any] interface {
	Acquire() *V
	Release(v *V) error
}
