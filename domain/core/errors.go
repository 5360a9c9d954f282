package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input validation errors
	ErrDimensionMismatch = errors.New("design matrix rows do not match response length")
	ErrEmptyDesign       = errors.New("design matrix has no columns")
	ErrNonBinaryResponse = errors.New("response vector is not binary")
	ErrTooFewRows        = errors.New("fewer observations than cross-validation folds")
	ErrZeroPermutations  = errors.New("permutation count must be positive")

	// Fit errors
	ErrSingleClass       = errors.New("response contains a single class")
	ErrNoFiniteMinimum   = errors.New("cross-validated loss has no finite minimum")
	ErrSolverDiverged    = errors.New("coordinate descent failed to converge")
	ErrRetriesExhausted  = errors.New("degenerate shuffle retries exhausted")
	ErrEmptyNullSamples  = errors.New("no permutation samples to aggregate")

	// Storage errors
	ErrRunNotFound = errors.New("run not found")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewFitError(permutationIndex int, err error) error {
	return fmt.Errorf("fit failed for permutation %d: %w", permutationIndex, err)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrEmptyDesign) ||
		errors.Is(err, ErrNonBinaryResponse) ||
		errors.Is(err, ErrTooFewRows) ||
		errors.Is(err, ErrZeroPermutations)
}

func IsDegenerateResponse(err error) bool {
	return errors.Is(err, ErrSingleClass)
}

func IsFitError(err error) bool {
	return errors.Is(err, ErrSingleClass) ||
		errors.Is(err, ErrNoFiniteMinimum) ||
		errors.Is(err, ErrSolverDiverged)
}
