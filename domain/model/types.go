package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"lassosig/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// VariableSet is the ordered set of term identifiers, one per design-matrix
// column, fixed for a whole run. Every CoefficientVector produced anywhere in
// the pipeline is aligned to this ordering; that alignment is what makes
// cross-permutation comparison valid.
type VariableSet []core.TermKey

// NewVariableSet validates term uniqueness and returns the ordered set
func NewVariableSet(terms []core.TermKey) (VariableSet, error) {
	if len(terms) == 0 {
		return nil, core.ErrEmptyDesign
	}
	seen := make(map[core.TermKey]struct{}, len(terms))
	for _, t := range terms {
		if t == "" {
			return nil, core.NewValidationError("terms", "empty term key")
		}
		if _, dup := seen[t]; dup {
			return nil, core.NewValidationError("terms", fmt.Sprintf("duplicate term key %q", t))
		}
		seen[t] = struct{}{}
	}
	vs := make(VariableSet, len(terms))
	copy(vs, terms)
	return vs, nil
}

// DefaultVariableSet names columns var1..varP, matching the usual convention
// for unnamed design matrices.
func DefaultVariableSet(p int) VariableSet {
	vs := make(VariableSet, p)
	for j := 0; j < p; j++ {
		vs[j] = core.TermKey(fmt.Sprintf("var%d", j+1))
	}
	return vs
}

// Len returns the number of terms
func (vs VariableSet) Len() int { return len(vs) }

// Index returns the position of a term, or -1 if absent
func (vs VariableSet) Index(term core.TermKey) int {
	for i, t := range vs {
		if t == term {
			return i
		}
	}
	return -1
}

// Dataset is the immutable (X, y) pair the whole run operates on.
// INVARIANTS:
// - rows(X) == len(Y)
// - cols(X) == Terms.Len() >= 1
// - Y values in {0, 1}, both classes present
type Dataset struct {
	X     *mat.Dense
	Y     []float64
	Terms VariableSet
}

// NewDataset validates the invariants and returns an immutable dataset.
// The caller must not mutate X or y after construction.
func NewDataset(x *mat.Dense, y []float64, terms VariableSet) (*Dataset, error) {
	if x == nil {
		return nil, core.NewValidationError("X", "nil design matrix")
	}
	n, p := x.Dims()
	if p == 0 {
		return nil, core.ErrEmptyDesign
	}
	if n != len(y) {
		return nil, fmt.Errorf("%w: %d rows vs %d responses", core.ErrDimensionMismatch, n, len(y))
	}
	if len(terms) == 0 {
		terms = DefaultVariableSet(p)
	}
	if terms.Len() != p {
		return nil, fmt.Errorf("%w: %d columns vs %d terms", core.ErrDimensionMismatch, p, terms.Len())
	}
	ones, zeros := 0, 0
	for i, v := range y {
		switch v {
		case 0:
			zeros++
		case 1:
			ones++
		default:
			return nil, fmt.Errorf("%w: y[%d] = %v", core.ErrNonBinaryResponse, i, v)
		}
	}
	if ones == 0 || zeros == 0 {
		return nil, core.ErrSingleClass
	}
	return &Dataset{X: x, Y: y, Terms: terms}, nil
}

// Rows returns the observation count
func (d *Dataset) Rows() int {
	n, _ := d.X.Dims()
	return n
}

// Cols returns the predictor count
func (d *Dataset) Cols() int {
	_, p := d.X.Dims()
	return p
}

// ClassCounts returns the number of zeros and ones in the response
func (d *Dataset) ClassCounts() (zeros, ones int) {
	for _, v := range d.Y {
		if v == 1 {
			ones++
		} else {
			zeros++
		}
	}
	return zeros, ones
}

// CoefficientVector is one fit's estimates, total over the VariableSet:
// every term present in order, zero-filled where the penalty drove the
// coefficient to exactly zero. Immutable once produced.
type CoefficientVector struct {
	terms VariableSet
	betas []float64
}

// NewCoefficientVector copies betas and binds them to the term ordering
func NewCoefficientVector(terms VariableSet, betas []float64) (CoefficientVector, error) {
	if len(betas) != terms.Len() {
		return CoefficientVector{}, fmt.Errorf("%w: %d estimates vs %d terms",
			core.ErrDimensionMismatch, len(betas), terms.Len())
	}
	for i, b := range betas {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return CoefficientVector{}, core.NewValidationError("betas",
				fmt.Sprintf("non-finite estimate at index %d", i))
		}
	}
	cp := make([]float64, len(betas))
	copy(cp, betas)
	return CoefficientVector{terms: terms, betas: cp}, nil
}

// Len returns the term count
func (cv CoefficientVector) Len() int { return len(cv.betas) }

// At returns the estimate at term position j
func (cv CoefficientVector) At(j int) float64 { return cv.betas[j] }

// Terms returns the term ordering the vector is aligned to
func (cv CoefficientVector) Terms() VariableSet { return cv.terms }

// Values returns a defensive copy of the estimates
func (cv CoefficientVector) Values() []float64 {
	out := make([]float64, len(cv.betas))
	copy(out, cv.betas)
	return out
}

// NonzeroCount reports how many terms survived the penalty
func (cv CoefficientVector) NonzeroCount() int {
	n := 0
	for _, b := range cv.betas {
		if b != 0 {
			n++
		}
	}
	return n
}

// ============================================================================
// PIPELINE ARTIFACTS
// ============================================================================

// NullMatrix holds the permuted estimates, one row per permutation, columns
// in VariableSet order. Secondary diagnostic artifact; the aggregator is its
// only required consumer.
type NullMatrix struct {
	terms VariableSet
	rows  [][]float64
}

// NewNullMatrix collects permutation samples into the diagnostic matrix,
// enforcing alignment against the run's VariableSet.
func NewNullMatrix(terms VariableSet, samples []CoefficientVector) (*NullMatrix, error) {
	rows := make([][]float64, len(samples))
	for i, s := range samples {
		if s.Len() != terms.Len() {
			return nil, fmt.Errorf("%w: sample %d has %d terms, want %d",
				core.ErrDimensionMismatch, i, s.Len(), terms.Len())
		}
		rows[i] = s.Values()
	}
	return &NullMatrix{terms: terms, rows: rows}, nil
}

// Permutations returns the sample count
func (nm *NullMatrix) Permutations() int { return len(nm.rows) }

// Terms returns the column ordering
func (nm *NullMatrix) Terms() VariableSet { return nm.terms }

// At returns the estimate for permutation i, term j
func (nm *NullMatrix) At(i, j int) float64 { return nm.rows[i][j] }

// Column returns all permuted estimates for term position j
func (nm *NullMatrix) Column(j int) []float64 {
	col := make([]float64, len(nm.rows))
	for i, row := range nm.rows {
		col[i] = row[j]
	}
	return col
}

// ResultRow is one line of the terminal output table
type ResultRow struct {
	Term     core.TermKey `json:"term" db:"term"`
	Estimate float64      `json:"estimate" db:"estimate"`
	PValue   float64      `json:"p_value" db:"p_value"`
	QValue   float64      `json:"q_value" db:"q_value"`
}

// ResultTable is the terminal artifact: one row per term, VariableSet order
type ResultTable struct {
	Rows []ResultRow `json:"rows"`
}

// NewResultTable zips aligned estimate/p/q vectors into the output table
func NewResultTable(terms VariableSet, observed CoefficientVector, pvalues, qvalues []float64) (*ResultTable, error) {
	m := terms.Len()
	if observed.Len() != m || len(pvalues) != m || len(qvalues) != m {
		return nil, fmt.Errorf("%w: table inputs not aligned to %d terms", core.ErrDimensionMismatch, m)
	}
	rows := make([]ResultRow, m)
	for j, term := range terms {
		if pvalues[j] < 0 || pvalues[j] > 1 {
			return nil, core.NewValidationError("p_value", fmt.Sprintf("%v outside [0,1]", pvalues[j]))
		}
		if qvalues[j] < 0 || qvalues[j] > 1 {
			return nil, core.NewValidationError("q_value", fmt.Sprintf("%v outside [0,1]", qvalues[j]))
		}
		rows[j] = ResultRow{
			Term:     term,
			Estimate: observed.At(j),
			PValue:   pvalues[j],
			QValue:   qvalues[j],
		}
	}
	return &ResultTable{Rows: rows}, nil
}

// Row returns the row for a term, or false if the term is unknown
func (rt *ResultTable) Row(term core.TermKey) (ResultRow, bool) {
	for _, r := range rt.Rows {
		if r.Term == term {
			return r, true
		}
	}
	return ResultRow{}, false
}
