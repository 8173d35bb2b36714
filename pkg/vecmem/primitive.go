package vecmem

import (
	"sync"

	"github.com/ajitpratap0/vecmem/pkg/memerrors"
)

// PrimitiveMemory is the baseline strategy: Acquire constructs a brand-new
// buffer every call and Release forgets it, leaving reclamation to the
// garbage collector (or to the destructor hook). Nothing is shared between
// instances. The right choice when acquire/release pairs are infrequent.
//
// Handed-out buffers are still tracked by identity so that a double release
// or a foreign buffer is reported just like the pooling strategy would.
type PrimitiveMemory[V any] struct {
	mu       sync.Mutex
	live     map[*V]struct{}
	newFn    func() *V
	destroy  func(*V)
	typeName string
}

// PrimitiveOption configures a PrimitiveMemory.
type PrimitiveOption[V any] func(*PrimitiveMemory[V])

// WithPrimitiveConstructor sets the function used to construct buffers.
// The default constructs the zero value with new(V).
func WithPrimitiveConstructor[V any](fn func() *V) PrimitiveOption[V] {
	return func(m *PrimitiveMemory[V]) {
		m.newFn = fn
	}
}

// WithPrimitiveDestructor sets a hook invoked on released buffers, for
// element types that hold resources beyond garbage-collected memory.
func WithPrimitiveDestructor[V any](fn func(*V)) PrimitiveOption[V] {
	return func(m *PrimitiveMemory[V]) {
		m.destroy = fn
	}
}

// NewPrimitiveMemory creates a non-pooling strategy.
func NewPrimitiveMemory[V any](opts ...PrimitiveOption[V]) *PrimitiveMemory[V] {
	m := &PrimitiveMemory[V]{
		live:     make(map[*V]struct{}),
		newFn:    func() *V { return new(V) },
		typeName: typeName[V](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire constructs and returns a fresh buffer.
func (m *PrimitiveMemory[V]) Acquire() *V {
	v := m.newFn()
	m.mu.Lock()
	m.live[v] = struct{}{}
	m.mu.Unlock()
	return v
}

// Release destroys a buffer previously returned by Acquire on this instance.
// Releasing anything else returns a not_allocated error.
func (m *PrimitiveMemory[V]) Release(v *V) error {
	if v == nil {
		return memerrors.New(memerrors.ErrorTypeValidation, "cannot release a nil buffer").
			WithDetail("element_type", m.typeName)
	}

	m.mu.Lock()
	_, ok := m.live[v]
	if ok {
		delete(m.live, v)
	}
	m.mu.Unlock()

	if !ok {
		return memerrors.New(memerrors.ErrorTypeNotAllocated,
			"buffer was not allocated from this memory pool, or was already released").
			WithDetail("element_type", m.typeName)
	}
	if m.destroy != nil {
		m.destroy(v)
	}
	return nil
}

// Outstanding returns the number of buffers acquired and not yet released.
func (m *PrimitiveMemory[V]) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
