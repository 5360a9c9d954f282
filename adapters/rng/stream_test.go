package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_DeterministicPerIndex(t *testing.T) {
	a := NewStreamAdapter()

	first := a.Stream("shuffle", 42, 7)
	second := a.Stream("shuffle", 42, 7)

	for i := 0; i < 100; i++ {
		require.Equal(t, first.Int63(), second.Int63(), "draw %d diverged", i)
	}
}

func TestStream_IndependentAcrossIndexAndName(t *testing.T) {
	a := NewStreamAdapter()

	assert.NotEqual(t, a.DeriveSeed("shuffle", 42, 0), a.DeriveSeed("shuffle", 42, 1))
	assert.NotEqual(t, a.DeriveSeed("shuffle", 42, 0), a.DeriveSeed("folds", 42, 0))
	assert.NotEqual(t, a.DeriveSeed("shuffle", 42, 0), a.DeriveSeed("shuffle", 43, 0))
}

func TestDeriveSeed_NonNegative(t *testing.T) {
	a := NewStreamAdapter()
	for i := 0; i < 1000; i++ {
		assert.GreaterOrEqual(t, a.DeriveSeed("shuffle", -99, i), int64(0))
	}
}
