// Package solver provides iterative linear solvers that draw their temporary
// working vectors from a vecmem.Memory rather than allocating directly. This
// is the usage pattern the pool exists for: an inner solver invoked once per
// outer iteration reuses the same pooled buffers instead of churning the
// allocator.
package solver

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/vecmem/pkg/logger"
	"github.com/ajitpratap0/vecmem/pkg/memerrors"
	"github.com/ajitpratap0/vecmem/pkg/vector"
)

// Matrix is the linear operator a solver inverts. Vmult computes dst = A*src;
// dst is sized by the caller.
type Matrix[T vector.Real] interface {
	Vmult(dst, src *vector.Vector[T])
}

// Control bounds an iterative solve.
type Control struct {
	// MaxIterations caps the number of iterations before giving up
	MaxIterations int
	// Tolerance is the residual norm at which the solve is converged
	Tolerance float64
	// LogResiduals logs the residual norm of every iteration at debug level
	LogResiduals bool
}

// DefaultControl returns the control used when callers have no opinion:
// 1000 iterations, residual tolerance 1e-10.
func DefaultControl() Control {
	return Control{
		MaxIterations: 1000,
		Tolerance:     1e-10,
	}
}

// Result reports how a solve ended.
type Result struct {
	// Iterations is the number of iterations performed
	Iterations int `json:"iterations"`
	// Residual is the final residual norm
	Residual float64 `json:"residual"`
}

// convergenceFailure builds the error for a solve that exhausted its
// iteration budget.
func convergenceFailure(method string, control Control, res Result) error {
	return memerrors.New(memerrors.ErrorTypeConvergence, "iterative solver did not converge").
		WithDetail("method", method).
		WithDetail("iterations", res.Iterations).
		WithDetail("residual", res.Residual).
		WithDetail("tolerance", control.Tolerance)
}

func logResidual(method string, step int, res float64) {
	logger.Debug("solver residual",
		zap.String("method", method),
		zap.Int("step", step),
		zap.Float64("residual", res),
	)
}
