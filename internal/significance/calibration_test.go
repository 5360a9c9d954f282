package significance

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"lassosig/domain/model"
)

// When observed and null estimates come from the same continuous
// distribution, empirical p-values must be approximately uniform on [0,1].
// The check is a Kolmogorov-Smirnov distance against the uniform CDF.
func TestAggregate_NullPValuesApproximatelyUniform(t *testing.T) {
	const (
		terms        = 200
		permutations = 400
	)
	rng := rand.New(rand.NewSource(99))
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	draw := func() float64 { return normal.Quantile(rng.Float64()) }

	termSet := model.DefaultVariableSet(terms)
	observed := make([]float64, terms)
	for j := range observed {
		observed[j] = draw()
	}
	obsVec, err := model.NewCoefficientVector(termSet, observed)
	require.NoError(t, err)

	samples := make([]model.CoefficientVector, permutations)
	for i := range samples {
		vals := make([]float64, terms)
		for j := range vals {
			vals[j] = draw()
		}
		samples[i], err = model.NewCoefficientVector(termSet, vals)
		require.NoError(t, err)
	}
	null, err := model.NewNullMatrix(termSet, samples)
	require.NoError(t, err)

	pvalues, err := Aggregator{}.Aggregate(obsVec, null)
	require.NoError(t, err)

	sorted := append([]float64(nil), pvalues...)
	sort.Float64s(sorted)

	// KS distance to Uniform(0,1); the empirical p-values live on a grid of
	// width 1/permutations, so allow that discretization on top of the
	// 95% critical value 1.36/sqrt(m).
	ks := 0.0
	m := float64(len(sorted))
	for i, p := range sorted {
		lo := math.Abs(p - float64(i)/m)
		hi := math.Abs(p - float64(i+1)/m)
		ks = math.Max(ks, math.Max(lo, hi))
	}
	limit := 1.36/math.Sqrt(m) + 1.0/float64(permutations)
	require.Less(t, ks, limit, "p-values are not uniform under the null (KS=%.4f)", ks)
}
