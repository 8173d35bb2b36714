package vecmem_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/vecmem/pkg/logger"
	"github.com/ajitpratap0/vecmem/pkg/memerrors"
	"github.com/ajitpratap0/vecmem/pkg/vecmem"
	"github.com/ajitpratap0/vecmem/pkg/vector"
)

// buf is the element type used by tests that want a private registry.
type buf struct {
	data [32]float64
}

func newPrivateGrowing(t *testing.T) *vecmem.GrowingMemory[buf] {
	t.Helper()
	mem, err := vecmem.NewGrowingMemory(vecmem.WithRegistry(vecmem.NewRegistry[buf]()))
	require.NoError(t, err)
	return mem
}

func TestGrowingMemoryOutstandingTracksAcquiresMinusReleases(t *testing.T) {
	mem := newPrivateGrowing(t)

	var held []*buf
	for i := 0; i < 5; i++ {
		held = append(held, mem.Acquire())
		assert.Equal(t, int64(i+1), mem.Stats().Outstanding)
	}

	for i, v := range held {
		require.NoError(t, mem.Release(v))
		assert.Equal(t, int64(len(held)-i-1), mem.Stats().Outstanding)
	}

	require.NoError(t, mem.Close())
}

func TestGrowingMemoryReusesReleasedBuffer(t *testing.T) {
	mem := newPrivateGrowing(t)
	defer mem.Close()

	v1 := mem.Acquire()
	require.NoError(t, mem.Release(v1))

	v2 := mem.Acquire()
	assert.Same(t, v1, v2, "first-fit over unused entries must return the released buffer")
	require.NoError(t, mem.Release(v2))
}

func TestGrowingMemoryTotalAllocationsOnlyGrowsOnDemand(t *testing.T) {
	mem := newPrivateGrowing(t)
	defer mem.Close()

	v1 := mem.Acquire()
	v2 := mem.Acquire()
	assert.Equal(t, int64(2), mem.Stats().TotalAllocations)

	require.NoError(t, mem.Release(v1))
	require.NoError(t, mem.Release(v2))

	// Both acquires are satisfied from the pool; no new allocations.
	v3 := mem.Acquire()
	v4 := mem.Acquire()
	assert.Equal(t, int64(2), mem.Stats().TotalAllocations)

	// A third concurrent buffer forces growth.
	v5 := mem.Acquire()
	assert.Equal(t, int64(3), mem.Stats().TotalAllocations)

	for _, v := range []*buf{v3, v4, v5} {
		require.NoError(t, mem.Release(v))
	}
}

func TestGrowingMemoryDoubleReleaseFails(t *testing.T) {
	mem := newPrivateGrowing(t)
	defer mem.Close()

	v := mem.Acquire()
	require.NoError(t, mem.Release(v))

	err := mem.Release(v)
	require.Error(t, err)
	assert.True(t, memerrors.IsType(err, memerrors.ErrorTypeNotAllocated))

	// The failed release must not disturb the bookkeeping.
	assert.Equal(t, int64(0), mem.Stats().Outstanding)
}

func TestGrowingMemoryForeignBufferFails(t *testing.T) {
	mem := newPrivateGrowing(t)
	defer mem.Close()
	other := newPrivateGrowing(t)
	defer other.Close()

	v := other.Acquire()
	err := mem.Release(v)
	require.Error(t, err)
	assert.True(t, memerrors.IsType(err, memerrors.ErrorTypeNotAllocated))

	require.NoError(t, other.Release(v))
}

func TestGrowingMemoryReleaseNilFails(t *testing.T) {
	mem := newPrivateGrowing(t)
	defer mem.Close()

	err := mem.Release(nil)
	require.Error(t, err)
	assert.True(t, memerrors.IsType(err, memerrors.ErrorTypeValidation))
}

func TestGrowingMemorySharedRegistryAcrossInstances(t *testing.T) {
	reg := vecmem.NewRegistry[buf]()
	m1, err := vecmem.NewGrowingMemory(vecmem.WithRegistry(reg))
	require.NoError(t, err)
	m2, err := vecmem.NewGrowingMemory(vecmem.WithRegistry(reg))
	require.NoError(t, err)

	// A buffer released through one instance is reused by the other.
	v := m1.Acquire()
	require.NoError(t, m1.Release(v))
	assert.Same(t, v, m2.Acquire())
	assert.Equal(t, int64(0), m2.Stats().TotalAllocations, "reuse across instances, not reallocation")

	// Releasing through a sibling instance of the same registry is accepted;
	// the counters move on the releasing instance, so m2 still shows the
	// buffer as outstanding and reports it as a leak at close.
	require.NoError(t, m1.Release(v))
	assert.Equal(t, int64(1), m2.Stats().Outstanding)
	err = m2.Close()
	assert.True(t, memerrors.IsType(err, memerrors.ErrorTypeLeak))
}

func TestGrowingMemoryInitialSizePreallocates(t *testing.T) {
	reg := vecmem.NewRegistry[buf]()
	mem, err := vecmem.NewGrowingMemory(
		vecmem.WithRegistry(reg),
		vecmem.WithInitialSize[buf](4),
	)
	require.NoError(t, err)
	defer mem.Close()

	stats := reg.Stats()
	assert.Equal(t, 4, stats.Entries)
	assert.Equal(t, 0, stats.InUse)

	// Preallocated buffers satisfy acquires without counting as allocations.
	v := mem.Acquire()
	assert.Equal(t, int64(0), mem.Stats().TotalAllocations)
	require.NoError(t, mem.Release(v))
}

func TestGrowingMemoryNegativeInitialSizeRejected(t *testing.T) {
	_, err := vecmem.NewGrowingMemory(vecmem.WithInitialSize[buf](-1))
	require.Error(t, err)
	assert.True(t, memerrors.IsType(err, memerrors.ErrorTypeValidation))
}

func TestGrowingMemoryLeakDiagnosticOnClose(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	prev := logger.Get()
	logger.SetLogger(zap.New(core))
	defer logger.SetLogger(prev)

	mem := newPrivateGrowing(t)
	mem.Acquire()
	mem.Acquire()

	err := mem.Close()
	require.Error(t, err)
	assert.True(t, memerrors.IsType(err, memerrors.ErrorTypeLeak))

	var leakErr *memerrors.Error
	require.ErrorAs(t, err, &leakErr)
	assert.Equal(t, int64(2), leakErr.Details["outstanding"])

	entries := logs.FilterMessage("vector memory closed with outstanding buffers").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ContextMap()["outstanding"])
}

func TestGrowingMemoryStatisticsLoggingOnClose(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := logger.Get()
	logger.SetLogger(zap.New(core))
	defer logger.SetLogger(prev)

	mem, err := vecmem.NewGrowingMemory(
		vecmem.WithRegistry(vecmem.NewRegistry[buf]()),
		vecmem.WithStatisticsLogging[buf](),
	)
	require.NoError(t, err)

	v := mem.Acquire()
	require.NoError(t, mem.Release(v))
	require.NoError(t, mem.Close())

	entries := logs.FilterMessage("vector memory statistics").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["total_allocations"])
	assert.Equal(t, int64(0), entries[0].ContextMap()["outstanding"])
}

func TestGrowingMemoryMemoryConsumptionCountsBuffers(t *testing.T) {
	mem, err := vecmem.NewGrowingMemory(
		vecmem.WithRegistry(vecmem.NewRegistry[vector.Vector[float64]]()),
	)
	require.NoError(t, err)
	defer mem.Close()

	v := mem.Acquire()
	v.Reinit(1000)
	consumed := mem.MemoryConsumption()
	assert.GreaterOrEqual(t, consumed, uint64(1000*8), "pool footprint must include buffer storage")
	require.NoError(t, mem.Release(v))
}

func TestGrowingMemoryConcurrentCycles(t *testing.T) {
	const workers = 8
	const cycles = 500

	reg := vecmem.NewRegistry[buf]()
	mem, err := vecmem.NewGrowingMemory(vecmem.WithRegistry(reg))
	require.NoError(t, err)

	// Every buffer may be owned by at most one goroutine at a time; a pool
	// that hands the same entry to two workers trips LoadOrStore.
	var owned sync.Map
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < cycles; i++ {
				v := mem.Acquire()
				if _, loaded := owned.LoadOrStore(v, struct{}{}); loaded {
					errs <- assert.AnError
					return
				}
				v.data[0] = float64(i)
				owned.Delete(v)
				if err := mem.Release(v); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent cycle failed: %v", err)
	}

	assert.Equal(t, int64(0), mem.Stats().Outstanding)
	stats := reg.Stats()
	assert.Equal(t, 0, stats.InUse)
	assert.LessOrEqual(t, stats.Entries, workers, "pool must not grow past peak concurrency")
	require.NoError(t, mem.Close())
}

func BenchmarkGrowingAcquireRelease(b *testing.B) {
	mem, err := vecmem.NewGrowingMemory(vecmem.WithRegistry(vecmem.NewRegistry[buf]()))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v := mem.Acquire()
		if err := mem.Release(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPrimitiveAcquireRelease(b *testing.B) {
	mem := vecmem.NewPrimitiveMemory[buf]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v := mem.Acquire()
		if err := mem.Release(v); err != nil {
			b.Fatal(err)
		}
	}
}
