// Command vecmem-bench exercises the vecmem pools under configurable load
// and prints machine-readable reports. It is the quickest way to compare the
// growing and primitive strategies on a workload shaped like yours.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/vecmem/pkg/logger"
	"github.com/ajitpratap0/vecmem/pkg/metrics"
	"github.com/ajitpratap0/vecmem/pkg/solver"
	"github.com/ajitpratap0/vecmem/pkg/vecmem"
	"github.com/ajitpratap0/vecmem/pkg/vector"
)

var version = "0.1.0"

type elem = vector.Vector[float64]

// cycleReport summarizes a cycle run for JSON output.
type cycleReport struct {
	Strategy        string                `json:"strategy"`
	Workers         int                   `json:"workers"`
	CyclesPerWorker int                   `json:"cycles_per_worker"`
	VectorSize      int                   `json:"vector_size"`
	DurationSeconds float64               `json:"duration_seconds"`
	AcquiresPerSec  float64               `json:"acquires_per_sec"`
	Memory          *vecmem.Stats         `json:"memory,omitempty"`
	Registry        *vecmem.RegistryStats `json:"registry,omitempty"`
	PoolBytes       uint64                `json:"pool_bytes,omitempty"`
}

// solveReport summarizes a solve run for JSON output.
type solveReport struct {
	Strategy        string                `json:"strategy"`
	Size            int                   `json:"size"`
	Tolerance       float64               `json:"tolerance"`
	Iterations      int                   `json:"iterations"`
	Residual        float64               `json:"residual"`
	DurationSeconds float64               `json:"duration_seconds"`
	Memory          *vecmem.Stats         `json:"memory,omitempty"`
	Registry        *vecmem.RegistryStats `json:"registry,omitempty"`
}

// laplace1D is the tridiagonal (-1, 2, -1) stencil, the canonical symmetric
// positive definite test operator.
type laplace1D struct{}

func (laplace1D) Vmult(dst, src *vector.Vector[float64]) {
	d := dst.Data()
	s := src.Data()
	for i := range d {
		x := 2 * s[i]
		if i > 0 {
			x -= s[i-1]
		}
		if i+1 < len(s) {
			x -= s[i+1]
		}
		d[i] = x
	}
}

func initLogging() error {
	return logger.Init(logger.Config{
		Level:    viper.GetString("log-level"),
		Encoding: "console",
	})
}

func printReport(report interface{}) error {
	out, err := gojson.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	root := &cobra.Command{
		Use:   "vecmem-bench",
		Short: "vecmem-bench - pool benchmarks for temporary vector memory",
		Long: `vecmem-bench drives the vecmem buffer pools with concurrent acquire/release
cycles and with real iterative solves, then reports pool statistics as JSON.

Flags can also be set through VECMEM_* environment variables, e.g.
VECMEM_WORKERS=16 vecmem-bench cycle`,
	}

	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("strategy", "growing", "Memory strategy: growing or primitive")

	viper.SetEnvPrefix("VECMEM")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("strategy", root.PersistentFlags().Lookup("strategy"))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vecmem-bench v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	cycleCmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run concurrent acquire/release cycles against one shared pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogging(); err != nil {
				return err
			}
			return runCycles()
		},
	}
	cycleCmd.Flags().Int("workers", runtime.NumCPU(), "Concurrent workers")
	cycleCmd.Flags().Int("cycles", 10000, "Acquire/release cycles per worker")
	cycleCmd.Flags().Int("size", 4096, "Vector length each cycle reinitializes to")
	_ = viper.BindPFlag("workers", cycleCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("cycles", cycleCmd.Flags().Lookup("cycles"))
	_ = viper.BindPFlag("size", cycleCmd.Flags().Lookup("size"))
	root.AddCommand(cycleCmd)

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a 1-D Laplace system with CG drawing temporaries from the pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogging(); err != nil {
				return err
			}
			return runSolve()
		},
	}
	solveCmd.Flags().Int("size", 1000, "Number of unknowns")
	solveCmd.Flags().Float64("tolerance", 1e-8, "Residual tolerance")
	solveCmd.Flags().Int("max-iterations", 0, "Iteration cap (default 10x size)")
	_ = viper.BindPFlag("solve-size", solveCmd.Flags().Lookup("size"))
	_ = viper.BindPFlag("tolerance", solveCmd.Flags().Lookup("tolerance"))
	_ = viper.BindPFlag("max-iterations", solveCmd.Flags().Lookup("max-iterations"))
	root.AddCommand(solveCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCycles() error {
	workers := viper.GetInt("workers")
	cycles := viper.GetInt("cycles")
	size := viper.GetInt("size")
	strategy := viper.GetString("strategy")

	report := cycleReport{
		Strategy:        strategy,
		Workers:         workers,
		CyclesPerWorker: cycles,
		VectorSize:      size,
	}

	var mem vecmem.Memory[elem]
	var growing *vecmem.GrowingMemory[elem]
	switch strategy {
	case "growing":
		// Private registry so repeated runs measure a cold pool.
		m, err := vecmem.NewGrowingMemory(vecmem.WithRegistry(vecmem.NewRegistry[elem]()))
		if err != nil {
			return err
		}
		growing = m
		mem = m
	case "primitive":
		mem = vecmem.NewPrimitiveMemory[elem]()
	default:
		return fmt.Errorf("unknown strategy %q (want growing or primitive)", strategy)
	}

	logger.Info("starting cycle benchmark",
		zap.String("strategy", strategy),
		zap.Int("workers", workers),
		zap.Int("cycles", cycles),
		zap.Int("size", size),
	)

	timer := metrics.NewTimer("cycle")
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < cycles; i++ {
				h := vecmem.NewHandle(mem)
				v := h.Get()
				v.Reinit(size)
				v.Set(0, 1)
				if err := h.Close(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := timer.Stop()

	report.DurationSeconds = elapsed.Seconds()
	if elapsed > 0 {
		report.AcquiresPerSec = float64(workers*cycles) / elapsed.Seconds()
	}
	if growing != nil {
		stats := growing.Stats()
		regStats := growing.Registry().Stats()
		report.Memory = &stats
		report.Registry = &regStats
		report.PoolBytes = growing.MemoryConsumption()
		if err := growing.Close(); err != nil {
			return err
		}
	}

	return printReport(report)
}

func runSolve() error {
	size := viper.GetInt("solve-size")
	tolerance := viper.GetFloat64("tolerance")
	maxIterations := viper.GetInt("max-iterations")
	strategy := viper.GetString("strategy")

	if maxIterations <= 0 {
		maxIterations = 10 * size
	}

	var mem vecmem.Memory[elem]
	var growing *vecmem.GrowingMemory[elem]
	switch strategy {
	case "growing":
		m, err := vecmem.NewGrowingMemory(
			vecmem.WithRegistry(vecmem.NewRegistry[elem]()),
			vecmem.WithInitialSize[elem](3), // CG needs three temporaries
		)
		if err != nil {
			return err
		}
		growing = m
		mem = m
	case "primitive":
		mem = vecmem.NewPrimitiveMemory[elem]()
	default:
		return fmt.Errorf("unknown strategy %q (want growing or primitive)", strategy)
	}

	control := solver.Control{
		MaxIterations: maxIterations,
		Tolerance:     tolerance,
	}
	cg := solver.NewCG(control, mem)

	x := vector.New[float64](size)
	b := vector.New[float64](size)
	for i := 0; i < size; i++ {
		b.Set(i, 1)
	}

	logger.Info("starting solve benchmark",
		zap.String("strategy", strategy),
		zap.Int("size", size),
		zap.Float64("tolerance", tolerance),
	)

	start := time.Now()
	result, err := cg.Solve(laplace1D{}, x, b)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	report := solveReport{
		Strategy:        strategy,
		Size:            size,
		Tolerance:       tolerance,
		Iterations:      result.Iterations,
		Residual:        result.Residual,
		DurationSeconds: elapsed.Seconds(),
	}
	if growing != nil {
		stats := growing.Stats()
		regStats := growing.Registry().Stats()
		report.Memory = &stats
		report.Registry = &regStats
		if err := growing.Close(); err != nil {
			return err
		}
	}

	return printReport(report)
}
