// Package significance turns a collection of permuted coefficient estimates
// into empirical p-values and applies multiple-testing correction.
package significance

import (
	"math"

	"lassosig/domain/core"
	"lassosig/domain/model"
)

// Aggregator reduces term-wise magnitude comparisons into empirical p-values
type Aggregator struct {
	// Smooth switches to the conservative (1+k)/(1+N) estimator. The default
	// plug-in estimator k/N can return an exact 0, which is really a lower
	// bound of 1/N; callers that feed p-values into downstream thresholds may
	// prefer the smoothed form.
	Smooth bool
}

// Aggregate computes, for every term, the fraction of null samples whose
// estimate magnitude reaches the observed magnitude. The test is two-sided
// on magnitude: lasso estimates can flip sign under resampling, so only
// |estimate| is comparable across fits.
func (a Aggregator) Aggregate(observed model.CoefficientVector, null *model.NullMatrix) ([]float64, error) {
	if null == nil || null.Permutations() == 0 {
		return nil, core.ErrEmptyNullSamples
	}
	m := observed.Len()
	if null.Terms().Len() != m {
		return nil, core.ErrDimensionMismatch
	}

	n := null.Permutations()
	pvalues := make([]float64, m)
	for j := 0; j < m; j++ {
		obs := math.Abs(observed.At(j))
		extreme := 0
		for i := 0; i < n; i++ {
			if math.Abs(null.At(i, j)) >= obs {
				extreme++
			}
		}
		if a.Smooth {
			pvalues[j] = float64(1+extreme) / float64(1+n)
		} else {
			pvalues[j] = float64(extreme) / float64(n)
		}
	}
	return pvalues, nil
}
