package solver

import (
	"github.com/ajitpratap0/vecmem/pkg/vecmem"
	"github.com/ajitpratap0/vecmem/pkg/vector"
)

// Richardson is the stationary iteration x += omega*(b - A*x). It converges
// slowly but works on any operator whose spectrum the relaxation parameter
// covers, and exercises the single-temporary acquisition pattern.
type Richardson[T vector.Real] struct {
	control Control
	omega   T
	mem     vecmem.Memory[vector.Vector[T]]
}

// NewRichardson creates a Richardson solver with relaxation parameter omega,
// drawing its working vector from mem.
func NewRichardson[T vector.Real](control Control, omega T, mem vecmem.Memory[vector.Vector[T]]) *Richardson[T] {
	return &Richardson[T]{control: control, omega: omega, mem: mem}
}

// Solve solves a*x = b, using x as the starting guess and writing the
// solution into it.
func (s *Richardson[T]) Solve(a Matrix[T], x, b *vector.Vector[T]) (Result, error) {
	n := b.Len()

	r := vecmem.NewHandle(s.mem)
	defer r.Close()

	rv := r.Get()
	rv.Reinit(n)

	res := 0.0
	for it := 1; it <= s.control.MaxIterations; it++ {
		// r = b - A x
		a.Vmult(rv, x)
		rv.Sadd(-1, 1, b)

		res = rv.Norm()
		if s.control.LogResiduals {
			logResidual("richardson", it, res)
		}
		if res < s.control.Tolerance {
			return Result{Iterations: it, Residual: res}, nil
		}

		x.AddScaled(s.omega, rv)
	}

	result := Result{Iterations: s.control.MaxIterations, Residual: res}
	return result, convergenceFailure("richardson", s.control, result)
}
