// Package vector provides the resizable numeric vector managed by the vecmem
// pools and consumed by the iterative solvers. It deliberately stays small:
// just the element access and BLAS-1 style operations the solvers need.
package vector

import (
	"math"
	"unsafe"
)

// Real constrains the element types vectors support.
type Real interface {
	~float32 | ~float64
}

// Vector is a dense numeric vector. Its zero value is an empty vector ready
// for Reinit, which is what the vecmem pools construct.
type Vector[T Real] struct {
	data []T
}

// New creates a zeroed vector of length n.
func New[T Real](n int) *Vector[T] {
	return &Vector[T]{data: make([]T, n)}
}

// FromSlice creates a vector owning a copy of the given elements.
func FromSlice[T Real](elems []T) *Vector[T] {
	v := &Vector[T]{data: make([]T, len(elems))}
	copy(v.data, elems)
	return v
}

// Reinit resizes the vector to length n and zeroes every element. Buffers
// coming out of a pool have unspecified size and contents; callers reinit
// before use.
func (v *Vector[T]) Reinit(n int) {
	if cap(v.data) >= n {
		v.data = v.data[:n]
	} else {
		v.data = make([]T, n)
		return
	}
	for i := range v.data {
		v.data[i] = 0
	}
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int {
	return len(v.data)
}

// Data returns the backing slice for direct element access.
func (v *Vector[T]) Data() []T {
	return v.data
}

// At returns element i.
func (v *Vector[T]) At(i int) T {
	return v.data[i]
}

// Set assigns element i.
func (v *Vector[T]) Set(i int, x T) {
	v.data[i] = x
}

// CopyFrom makes v an element-wise copy of w, resizing as needed.
func (v *Vector[T]) CopyFrom(w *Vector[T]) {
	if cap(v.data) >= len(w.data) {
		v.data = v.data[:len(w.data)]
	} else {
		v.data = make([]T, len(w.data))
	}
	copy(v.data, w.data)
}

// Equ sets v = a*w, resizing as needed.
func (v *Vector[T]) Equ(a T, w *Vector[T]) {
	if cap(v.data) >= len(w.data) {
		v.data = v.data[:len(w.data)]
	} else {
		v.data = make([]T, len(w.data))
	}
	for i, x := range w.data {
		v.data[i] = a * x
	}
}

// Add sets v += w. Lengths must match.
func (v *Vector[T]) Add(w *Vector[T]) {
	for i, x := range w.data {
		v.data[i] += x
	}
}

// AddScaled sets v += a*w. Lengths must match.
func (v *Vector[T]) AddScaled(a T, w *Vector[T]) {
	for i, x := range w.data {
		v.data[i] += a * x
	}
}

// Sadd sets v = s*v + a*w. Lengths must match.
func (v *Vector[T]) Sadd(s, a T, w *Vector[T]) {
	for i := range v.data {
		v.data[i] = s*v.data[i] + a*w.data[i]
	}
}

// Scale sets v *= a.
func (v *Vector[T]) Scale(a T) {
	for i := range v.data {
		v.data[i] *= a
	}
}

// Dot returns the inner product of v and w. Lengths must match.
func (v *Vector[T]) Dot(w *Vector[T]) T {
	var sum T
	for i, x := range v.data {
		sum += x * w.data[i]
	}
	return sum
}

// Norm returns the Euclidean norm.
func (v *Vector[T]) Norm() float64 {
	var sum float64
	for _, x := range v.data {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// LinftyNorm returns the maximum absolute element value.
func (v *Vector[T]) LinftyNorm() float64 {
	var m float64
	for _, x := range v.data {
		if a := math.Abs(float64(x)); a > m {
			m = a
		}
	}
	return m
}

// MemoryConsumption returns the bytes held by the vector, counting the full
// backing capacity. The vecmem registries use this to report pool footprint.
func (v *Vector[T]) MemoryConsumption() uint64 {
	var elem T
	return uint64(unsafe.Sizeof(*v)) + uint64(cap(v.data))*uint64(unsafe.Sizeof(elem))
}
