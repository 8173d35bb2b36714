package vector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/vecmem/pkg/vector"
)

func TestReinitSizesAndZeroes(t *testing.T) {
	v := vector.FromSlice([]float64{1, 2, 3})

	v.Reinit(2)
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, []float64{0, 0}, v.Data())

	v.Reinit(5)
	assert.Equal(t, 5, v.Len())
	for i := 0; i < v.Len(); i++ {
		assert.Zero(t, v.At(i))
	}
}

func TestReinitReusesCapacity(t *testing.T) {
	v := vector.New[float64](100)
	data := v.Data()
	v.Set(7, 42)

	v.Reinit(10)
	assert.Equal(t, 10, v.Len())
	assert.Zero(t, v.At(7), "reinit must zero surviving elements")
	assert.Equal(t, &data[0], &v.Data()[0], "shrinking reinit must not reallocate")
}

func TestArithmetic(t *testing.T) {
	v := vector.FromSlice([]float64{1, 2, 3})
	w := vector.FromSlice([]float64{4, 5, 6})

	v.Add(w)
	assert.Equal(t, []float64{5, 7, 9}, v.Data())

	v.AddScaled(-1, w)
	assert.Equal(t, []float64{1, 2, 3}, v.Data())

	v.Sadd(2, 1, w)
	assert.Equal(t, []float64{6, 9, 12}, v.Data())

	v.Scale(0.5)
	assert.Equal(t, []float64{3, 4.5, 6}, v.Data())

	v.Equ(2, w)
	assert.Equal(t, []float64{8, 10, 12}, v.Data())

	u := vector.New[float64](0)
	u.CopyFrom(w)
	assert.Equal(t, w.Data(), u.Data())
}

func TestDotAndNorms(t *testing.T) {
	v := vector.FromSlice([]float64{3, 4})
	w := vector.FromSlice([]float64{1, 2})

	assert.InDelta(t, 11, v.Dot(w), 1e-14)
	assert.InDelta(t, 5, v.Norm(), 1e-14)
	assert.InDelta(t, 4, v.LinftyNorm(), 1e-14)
}

func TestFloat32Vectors(t *testing.T) {
	v := vector.FromSlice([]float32{1.5, -2.5})
	assert.InDelta(t, 8.5, float64(v.Dot(v)), 1e-6)
	assert.InDelta(t, 2.5, v.LinftyNorm(), 1e-6)
}

func TestMemoryConsumptionCountsCapacity(t *testing.T) {
	v := vector.New[float64](1000)
	require.GreaterOrEqual(t, v.MemoryConsumption(), uint64(8000))

	v.Reinit(1)
	assert.GreaterOrEqual(t, v.MemoryConsumption(), uint64(8000),
		"capacity is retained and must stay counted")
}
