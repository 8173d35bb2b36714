package solver

import (
	"github.com/ajitpratap0/vecmem/pkg/vecmem"
	"github.com/ajitpratap0/vecmem/pkg/vector"
)

// CG is the conjugate gradient method for symmetric positive definite
// operators. Its three working vectors come from the memory strategy passed
// at construction, acquired through scoped handles so every exit path
// releases them.
type CG[T vector.Real] struct {
	control Control
	mem     vecmem.Memory[vector.Vector[T]]
}

// NewCG creates a conjugate gradient solver drawing temporaries from mem.
func NewCG[T vector.Real](control Control, mem vecmem.Memory[vector.Vector[T]]) *CG[T] {
	return &CG[T]{control: control, mem: mem}
}

// Solve solves a*x = b, using x as the starting guess and writing the
// solution into it. Returns a convergence error when the iteration budget is
// exhausted before the residual norm drops below the control tolerance.
func (s *CG[T]) Solve(a Matrix[T], x, b *vector.Vector[T]) (Result, error) {
	n := b.Len()

	g := vecmem.NewHandle(s.mem)
	defer g.Close()
	d := vecmem.NewHandle(s.mem)
	defer d.Close()
	h := vecmem.NewHandle(s.mem)
	defer h.Close()

	gv, dv, hv := g.Get(), d.Get(), h.Get()
	gv.Reinit(n)
	dv.Reinit(n)
	hv.Reinit(n)

	// g = A x - b
	a.Vmult(gv, x)
	gv.AddScaled(-1, b)

	res := gv.Norm()
	if s.control.LogResiduals {
		logResidual("cg", 0, res)
	}
	if res < s.control.Tolerance {
		return Result{Iterations: 0, Residual: res}, nil
	}

	dv.Equ(-1, gv)
	gg := gv.Dot(gv)

	for it := 1; it <= s.control.MaxIterations; it++ {
		a.Vmult(hv, dv)

		alpha := gg / dv.Dot(hv)
		x.AddScaled(alpha, dv)
		gv.AddScaled(alpha, hv)

		res = gv.Norm()
		if s.control.LogResiduals {
			logResidual("cg", it, res)
		}
		if res < s.control.Tolerance {
			return Result{Iterations: it, Residual: res}, nil
		}

		ggNew := gv.Dot(gv)
		beta := ggNew / gg
		gg = ggNew

		// d = beta*d - g
		dv.Sadd(beta, -1, gv)
	}

	result := Result{Iterations: s.control.MaxIterations, Residual: res}
	return result, convergenceFailure("cg", s.control, result)
}
