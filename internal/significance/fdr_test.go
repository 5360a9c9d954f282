package significance

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lassosig/domain/model"
)

func TestBenjaminiHochberg_KnownValues(t *testing.T) {
	// m = 4: ranks 1..4 give p*m/i = {0.04, 0.04, 0.0667, 0.1}
	p := []float64{0.01, 0.02, 0.05, 0.10}
	q := BenjaminiHochberg(p)

	require.Len(t, q, 4)
	assert.InDelta(t, 0.04, q[0], 1e-12)
	assert.InDelta(t, 0.04, q[1], 1e-12)
	assert.InDelta(t, 0.05*4.0/3.0, q[2], 1e-12)
	assert.InDelta(t, 0.10, q[3], 1e-12)
}

func TestBenjaminiHochberg_PreservesInputOrder(t *testing.T) {
	p := []float64{0.10, 0.01, 0.05, 0.02}
	q := BenjaminiHochberg(p)

	shuffledBack := BenjaminiHochberg([]float64{0.01, 0.02, 0.05, 0.10})
	assert.Equal(t, shuffledBack[3], q[0])
	assert.Equal(t, shuffledBack[0], q[1])
	assert.Equal(t, shuffledBack[2], q[2])
	assert.Equal(t, shuffledBack[1], q[3])
}

func TestBenjaminiHochberg_MonotoneInSortedOrder(t *testing.T) {
	p := []float64{0.91, 0.004, 0.2, 0.033, 0.55, 0.033, 0.0, 0.76}
	q := BenjaminiHochberg(p)

	type pair struct{ p, q float64 }
	pairs := make([]pair, len(p))
	for i := range p {
		pairs[i] = pair{p[i], q[i]}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].p < pairs[b].p })

	for i := 1; i < len(pairs); i++ {
		assert.GreaterOrEqual(t, pairs[i].q, pairs[i-1].q,
			"q-values must be non-decreasing along sorted p-values")
	}
}

func TestBenjaminiHochberg_Bounds(t *testing.T) {
	p := []float64{0.0, 0.5, 0.99, 1.0, 0.7, 0.7}
	for _, q := range BenjaminiHochberg(p) {
		assert.GreaterOrEqual(t, q, 0.0)
		assert.LessOrEqual(t, q, 1.0)
	}
}

func TestBenjaminiHochberg_Idempotent(t *testing.T) {
	p := []float64{0.62, 0.01, 0.33, 0.2, 0.048}
	first := BenjaminiHochberg(p)
	second := BenjaminiHochberg(p)
	require.Equal(t, first, second)
}

func TestBenjaminiHochberg_SingleTerm(t *testing.T) {
	q := BenjaminiHochberg([]float64{0.03})
	require.Equal(t, []float64{0.03}, q)
}

func TestBenjaminiHochberg_Empty(t *testing.T) {
	assert.Nil(t, BenjaminiHochberg(nil))
}

func TestBonferroni(t *testing.T) {
	q := Bonferroni([]float64{0.01, 0.3, 0.5})
	assert.InDelta(t, 0.03, q[0], 1e-12)
	assert.InDelta(t, 0.9, q[1], 1e-12)
	assert.Equal(t, 1.0, q[2])
}

func TestCorrect_MethodDispatch(t *testing.T) {
	p := []float64{0.02, 0.2}

	bh, err := Correct(p, model.FDRBenjaminiHochberg)
	require.NoError(t, err)
	assert.Equal(t, BenjaminiHochberg(p), bh)

	bonf, err := Correct(p, model.FDRBonferroni)
	require.NoError(t, err)
	assert.Equal(t, Bonferroni(p), bonf)

	_, err = Correct(p, model.FDRMethod("BY"))
	require.Error(t, err)
}
