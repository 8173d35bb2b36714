package vecmem

// Handle binds a buffer's lifetime to a lexical scope. Construction acquires
// from the given strategy immediately; deferring Close guarantees exactly one
// matching release on every exit path, including early returns and panics.
//
//	h := vecmem.NewHandle[vector.Vector[float64]](mem)
//	defer h.Close()
//	v := h.Get()
//	v.Reinit(n)
//
// A Handle must not be copied. Ownership moves with Move: the source is
// emptied so its later Close is a no-op and release happens once, through
// the new owner.
type Handle[V any] struct {
	mem Memory[V]
	v   *V
}

// NewHandle acquires a buffer from mem and wraps it in a scoped handle.
// Panics if mem is nil; there is nothing sensible to acquire from.
func NewHandle[V any](mem Memory[V]) *Handle[V] {
	if mem == nil {
		panic("vecmem: NewHandle called with nil memory")
	}
	return &Handle[V]{
		mem: mem,
		v:   mem.Acquire(),
	}
}

// Get returns the owned buffer, or nil after the handle has been released
// or moved from.
func (h *Handle[V]) Get() *V {
	return h.v
}

// Release returns the buffer to the strategy the handle was constructed
// with. Only the first call releases; later calls, and calls on a moved-from
// handle, are no-ops returning nil.
func (h *Handle[V]) Release() error {
	if h.v == nil {
		return nil
	}
	v := h.v
	h.v = nil
	return h.mem.Release(v)
}

// Close releases the buffer; it exists so a handle can be deferred directly.
func (h *Handle[V]) Close() error {
	return h.Release()
}

// Move transfers ownership of the buffer to a new handle bound to the same
// strategy. The source is emptied: it no longer controls release and its
// Close becomes a no-op.
func (h *Handle[V]) Move() *Handle[V] {
	nh := &Handle[V]{mem: h.mem, v: h.v}
	h.v = nil
	return nh
}
