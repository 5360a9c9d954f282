// Package diagnostics summarizes null distributions for the run report's
// optional diagnostic side channel.
package diagnostics

import (
	"github.com/montanaflynn/stats"

	"lassosig/domain/core"
	"lassosig/domain/model"
)

// NullSummary describes one term's permuted-estimate distribution
type NullSummary struct {
	Term         core.TermKey `json:"term"`
	Observed     float64      `json:"observed"`
	Mean         float64      `json:"mean"`
	StdDev       float64      `json:"std_dev"`
	Min          float64      `json:"min"`
	Max          float64      `json:"max"`
	Percentile95 float64      `json:"percentile_95"`
	Percentile99 float64      `json:"percentile_99"`
}

// Summarize computes per-term summaries of the null matrix against the
// observed estimates. Terms are reported in VariableSet order.
func Summarize(observed model.CoefficientVector, null *model.NullMatrix) ([]NullSummary, error) {
	if null == nil || null.Permutations() == 0 {
		return nil, core.ErrEmptyNullSamples
	}
	terms := null.Terms()
	out := make([]NullSummary, terms.Len())
	for j, term := range terms {
		col := null.Column(j)

		mean, _ := stats.Mean(col)
		sd, _ := stats.StandardDeviationSample(col)
		lo, _ := stats.Min(col)
		hi, _ := stats.Max(col)
		p95, _ := stats.Percentile(col, 95)
		p99, _ := stats.Percentile(col, 99)

		out[j] = NullSummary{
			Term:         term,
			Observed:     observed.At(j),
			Mean:         mean,
			StdDev:       sd,
			Min:          lo,
			Max:          hi,
			Percentile95: p95,
			Percentile99: p99,
		}
	}
	return out, nil
}
