// Package vecmem provides pooled temporary-buffer management for the numeric
// vectors used inside iterative algorithms, avoiding the cost and heap
// fragmentation of allocating large working vectors on every inner-loop
// iteration.
//
// # Architecture
//
// The module is organized around a narrow two-operation protocol:
//
// 1. Pool Protocol (vecmem.Memory): acquire a buffer, release a buffer.
// Consumers such as the iterative solvers depend only on this interface,
// so the pooling strategy can be swapped without touching call sites.
//
// 2. Strategies: vecmem.PrimitiveMemory allocates on acquire and forgets on
// release; vecmem.GrowingMemory marks released buffers unused and reuses
// them first-fit, backed by one mutex-guarded registry per element type
// shared across all instances.
//
// 3. Scoped ownership: vecmem.Handle binds a buffer to a lexical scope and
// guarantees exactly one release on every exit path, with explicit move
// semantics to transfer that responsibility.
//
// # Quick Start
//
// Solve a linear system with pooled temporaries:
//
//	import (
//	    "github.com/ajitpratap0/vecmem/pkg/solver"
//	    "github.com/ajitpratap0/vecmem/pkg/vecmem"
//	    "github.com/ajitpratap0/vecmem/pkg/vector"
//	)
//
//	mem, err := vecmem.NewGrowingMemory[vector.Vector[float64]]()
//	if err != nil {
//	    return err
//	}
//	defer mem.Close()
//
//	cg := solver.NewCG(solver.DefaultControl(), vecmem.Memory[vector.Vector[float64]](mem))
//	_, err = cg.Solve(a, x, b)
//
// Buffers that pile up between solves are reclaimed explicitly:
//
//	vecmem.ReleaseUnusedMemory[vector.Vector[float64]]()
//
// # Observability
//
// Pool traffic is exported as Prometheus metrics per element type, leaks are
// logged through the structured zap logger at close, and every misuse
// (double release, foreign buffer) surfaces as a typed memerrors.Error.
package vecmem
