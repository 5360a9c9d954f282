package significance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lassosig/domain/core"
	"lassosig/domain/model"
)

func coefVec(t *testing.T, terms model.VariableSet, vals []float64) model.CoefficientVector {
	t.Helper()
	cv, err := model.NewCoefficientVector(terms, vals)
	require.NoError(t, err)
	return cv
}

func nullMatrix(t *testing.T, terms model.VariableSet, rows [][]float64) *model.NullMatrix {
	t.Helper()
	samples := make([]model.CoefficientVector, len(rows))
	for i, r := range rows {
		samples[i] = coefVec(t, terms, r)
	}
	nm, err := model.NewNullMatrix(terms, samples)
	require.NoError(t, err)
	return nm
}

func TestAggregate_CountsMagnitudeExceedances(t *testing.T) {
	terms := model.DefaultVariableSet(2)
	observed := coefVec(t, terms, []float64{2.0, 0.5})
	null := nullMatrix(t, terms, [][]float64{
		{2.5, 0.1},  // term1 exceeds, term2 does not
		{-2.0, 0.5}, // term1 ties on magnitude (counts), term2 ties (counts)
		{1.0, -0.9}, // term2 exceeds via sign flip
		{0.0, 0.0},
	})

	p, err := Aggregator{}.Aggregate(observed, null)
	require.NoError(t, err)

	assert.InDelta(t, 2.0/4.0, p[0], 1e-12)
	assert.InDelta(t, 2.0/4.0, p[1], 1e-12)
}

func TestAggregate_ZeroReachableWithoutSmoothing(t *testing.T) {
	terms := model.DefaultVariableSet(1)
	observed := coefVec(t, terms, []float64{3.0})
	null := nullMatrix(t, terms, [][]float64{{0.1}, {-0.2}, {0.0}})

	p, err := Aggregator{}.Aggregate(observed, null)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p[0])
}

func TestAggregate_PlusOneSmoothing(t *testing.T) {
	terms := model.DefaultVariableSet(1)
	observed := coefVec(t, terms, []float64{3.0})
	null := nullMatrix(t, terms, [][]float64{{0.1}, {-0.2}, {0.0}})

	p, err := Aggregator{Smooth: true}.Aggregate(observed, null)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/4.0, p[0], 1e-12)
}

func TestAggregate_ZeroObservedAlwaysOne(t *testing.T) {
	// |null| >= 0 holds for every sample, so a term the observed fit dropped
	// gets p = 1
	terms := model.DefaultVariableSet(1)
	observed := coefVec(t, terms, []float64{0.0})
	null := nullMatrix(t, terms, [][]float64{{0.0}, {0.4}, {-0.1}})

	p, err := Aggregator{}.Aggregate(observed, null)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p[0])
}

func TestAggregate_SinglePermutationIsZeroOrOne(t *testing.T) {
	terms := model.DefaultVariableSet(2)
	observed := coefVec(t, terms, []float64{1.0, 0.2})
	null := nullMatrix(t, terms, [][]float64{{0.5, 0.8}})

	p, err := Aggregator{}.Aggregate(observed, null)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p[0])
	assert.Equal(t, 1.0, p[1])
}

func TestAggregate_EmptyNullRejected(t *testing.T) {
	terms := model.DefaultVariableSet(1)
	observed := coefVec(t, terms, []float64{1.0})
	empty := nullMatrix(t, terms, nil)

	_, err := Aggregator{}.Aggregate(observed, empty)
	require.ErrorIs(t, err, core.ErrEmptyNullSamples)
}
