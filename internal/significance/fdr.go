package significance

import (
	"fmt"
	"sort"

	"lassosig/domain/model"
)

// Correct maps a p-value vector to q-values under the chosen procedure.
// Pure function of the whole vector: it must see all terms at once, and
// output order matches input order.
func Correct(pvalues []float64, method model.FDRMethod) ([]float64, error) {
	switch method {
	case model.FDRBenjaminiHochberg:
		return BenjaminiHochberg(pvalues), nil
	case model.FDRBonferroni:
		return Bonferroni(pvalues), nil
	default:
		return nil, fmt.Errorf("unknown FDR method %q", method)
	}
}

// BenjaminiHochberg applies the step-up FDR procedure: sort ascending,
// q_(i) = p_(i) * m / i, enforce monotonicity with a running minimum from the
// largest rank down, clip to [0,1], and remap to the input order.
func BenjaminiHochberg(pvalues []float64) []float64 {
	m := len(pvalues)
	if m == 0 {
		return nil
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pvalues[order[a]] < pvalues[order[b]]
	})

	sorted := make([]float64, m)
	for rank, idx := range order {
		sorted[rank] = pvalues[idx] * float64(m) / float64(rank+1)
	}

	// running minimum from the weakest rank down
	for rank := m - 2; rank >= 0; rank-- {
		if sorted[rank] > sorted[rank+1] {
			sorted[rank] = sorted[rank+1]
		}
	}

	qvalues := make([]float64, m)
	for rank, idx := range order {
		q := sorted[rank]
		if q > 1 {
			q = 1
		}
		if q < 0 {
			q = 0
		}
		qvalues[idx] = q
	}
	return qvalues
}

// Bonferroni applies the family-wise correction min(p*m, 1)
func Bonferroni(pvalues []float64) []float64 {
	m := len(pvalues)
	qvalues := make([]float64, m)
	for i, p := range pvalues {
		q := p * float64(m)
		if q > 1 {
			q = 1
		}
		qvalues[i] = q
	}
	return qvalues
}
