package lasso

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lassosig/domain/core"
	"lassosig/domain/model"
)

func TestAssignFolds_BalancedAndDeterministic(t *testing.T) {
	folds := assignFolds(23, 5, 99)
	again := assignFolds(23, 5, 99)
	require.Equal(t, folds, again)

	sizes := make(map[int]int)
	for _, f := range folds {
		sizes[f]++
	}
	require.Len(t, sizes, 5)
	for k, size := range sizes {
		assert.InDelta(t, 23.0/5.0, float64(size), 1.0, "fold %d unbalanced", k)
	}
}

func TestAssignFolds_SeedChangesAssignment(t *testing.T) {
	a := assignFolds(40, 4, 1)
	b := assignFolds(40, 4, 2)
	assert.NotEqual(t, a, b)
}

func TestSelectLambda_TieResolvesToFirstMinimizer(t *testing.T) {
	// path order is strong-to-weak; equal losses must pick the earlier index
	idx, err := selectLambda([]float64{0.4, 0.2, 0.2, 0.3})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestSelectLambda_SkipsNonFinite(t *testing.T) {
	idx, err := selectLambda([]float64{math.NaN(), 0.5, 0.1})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestSelectLambda_NoFiniteMinimum(t *testing.T) {
	_, err := selectLambda([]float64{math.NaN(), math.NaN()})
	require.ErrorIs(t, err, core.ErrNoFiniteMinimum)
}

func TestCVFitter_RejectsBadConstruction(t *testing.T) {
	_, err := NewCVFitter(1, model.LossMisclassification, NewDefaultConfig())
	require.Error(t, err)

	_, err = NewCVFitter(5, model.LossMetric("hinge"), NewDefaultConfig())
	require.Error(t, err)
}

func TestCVFitter_FitAlignmentInvariant(t *testing.T) {
	x, y := signalDataset(120, 6, 11)
	terms := model.DefaultVariableSet(6)
	fitter, err := NewCVFitter(5, model.LossDeviance, NewDefaultConfig())
	require.NoError(t, err)

	res, err := fitter.Fit(context.Background(), x, y, terms, 7)
	require.NoError(t, err)

	// total over the variable set: every term present, zeros included
	require.Equal(t, 6, res.Coefficients.Len())
	require.Equal(t, terms, res.Coefficients.Terms())
	assert.Greater(t, res.Lambda, 0.0)
}

func TestCVFitter_Deterministic(t *testing.T) {
	x, y := signalDataset(100, 5, 12)
	terms := model.DefaultVariableSet(5)
	fitter, err := NewCVFitter(5, model.LossDeviance, NewDefaultConfig())
	require.NoError(t, err)

	a, err := fitter.Fit(context.Background(), x, y, terms, 3)
	require.NoError(t, err)
	b, err := fitter.Fit(context.Background(), x, y, terms, 3)
	require.NoError(t, err)

	require.Equal(t, a.Coefficients.Values(), b.Coefficients.Values())
	require.Equal(t, a.Lambda, b.Lambda)
}

func TestCVFitter_RecoversSignal(t *testing.T) {
	x, y := signalDataset(250, 5, 13)
	terms := model.DefaultVariableSet(5)
	fitter, err := NewCVFitter(10, model.LossDeviance, NewDefaultConfig())
	require.NoError(t, err)

	res, err := fitter.Fit(context.Background(), x, y, terms, 21)
	require.NoError(t, err)

	assert.NotZero(t, res.Coefficients.At(0), "signal column should survive selection")
}

func TestCVFitter_SingleClassResponse(t *testing.T) {
	x, _ := signalDataset(60, 4, 14)
	y := make([]float64, 60)
	terms := model.DefaultVariableSet(4)
	fitter, err := NewCVFitter(5, model.LossMisclassification, NewDefaultConfig())
	require.NoError(t, err)

	_, err = fitter.Fit(context.Background(), x, y, terms, 1)
	require.ErrorIs(t, err, core.ErrSingleClass)
}

func TestCVFitter_TooFewRows(t *testing.T) {
	x, y := signalDataset(4, 3, 15)
	terms := model.DefaultVariableSet(3)
	fitter, err := NewCVFitter(10, model.LossMisclassification, NewDefaultConfig())
	require.NoError(t, err)

	_, err = fitter.Fit(context.Background(), x, y, terms, 1)
	require.ErrorIs(t, err, core.ErrTooFewRows)
}

func TestCVFitter_CancelledContext(t *testing.T) {
	x, y := signalDataset(100, 4, 16)
	terms := model.DefaultVariableSet(4)
	fitter, err := NewCVFitter(5, model.LossMisclassification, NewDefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fitter.Fit(ctx, x, y, terms, 1)
	require.True(t, errors.Is(err, context.Canceled))
}
