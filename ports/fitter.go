package ports

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"lassosig/domain/model"
)

// FitResult is one cross-validated fit: the aligned coefficient estimate and
// the penalty strength the fold search selected.
type FitResult struct {
	Coefficients model.CoefficientVector
	Lambda       float64
}

// RegularizedFitter fits a penalized regularization path against an arbitrary
// response vector and returns a coefficient estimate aligned to the dataset's
// full VariableSet, zero-filled where the penalty removed a term.
//
// The response y is passed separately from the dataset so the permutation
// engine can refit against shuffled labels without rebuilding the design
// matrix. foldSeed makes the cross-validation fold assignment deterministic
// per call; two calls with identical (X, y, foldSeed) return identical
// results. Implementations must be safe for concurrent use.
type RegularizedFitter interface {
	Fit(ctx context.Context, x *mat.Dense, y []float64, terms model.VariableSet, foldSeed int64) (FitResult, error)
}
