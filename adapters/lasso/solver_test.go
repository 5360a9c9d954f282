package lasso

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// signalDataset builds n observations over p standard-normal columns where
// the response is a deterministic threshold of column 0.
func signalDataset(n, p int, seed int64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
		if x.At(i, 0) > 0 {
			y[i] = 1
		}
	}
	return x, y
}

func TestLambdaPath_DecreasingAndSized(t *testing.T) {
	x, y := signalDataset(100, 5, 1)
	cfg := NewDefaultConfig()

	path := LambdaPath(x, y, cfg)

	require.Len(t, path, cfg.PathLength)
	for k := 1; k < len(path); k++ {
		assert.Less(t, path[k], path[k-1], "path must decrease at index %d", k)
	}
	assert.InDelta(t, path[0]*cfg.LambdaMinRatio, path[len(path)-1], path[0]*1e-6)
}

func TestFitPath_NullModelAtLambdaMax(t *testing.T) {
	x, y := signalDataset(150, 4, 2)
	cfg := NewDefaultConfig()
	path := LambdaPath(x, y, cfg)

	points, err := FitPath(x, y, path[:1], cfg)
	require.NoError(t, err)
	require.Len(t, points, 1)

	for j, w := range points[0].Weights {
		assert.Zero(t, w, "weight %d must be zero at lambda max", j)
	}
}

func TestFitPath_HighPenaltyDrivesAllWeightsToZero(t *testing.T) {
	x, y := signalDataset(100, 3, 3)
	cfg := NewDefaultConfig()

	points, err := FitPath(x, y, []float64{100.0}, cfg)
	require.NoError(t, err)

	for j, w := range points[0].Weights {
		assert.Zero(t, w, "weight %d should not survive lambda=100", j)
	}
	// intercept tracks the base rate when no predictor survives
	ybar := 0.0
	for _, v := range y {
		ybar += v
	}
	ybar /= float64(len(y))
	assert.InDelta(t, math.Log(ybar/(1-ybar)), points[0].Intercept, 0.05)
}

func TestFitPath_RecoversSignalColumn(t *testing.T) {
	x, y := signalDataset(300, 5, 4)
	cfg := NewDefaultConfig()
	path := LambdaPath(x, y, cfg)

	points, err := FitPath(x, y, path, cfg)
	require.NoError(t, err)

	weakest := points[len(points)-1]
	require.Greater(t, weakest.Weights[0], 0.0, "signal column must carry positive weight")
	for j := 1; j < 5; j++ {
		assert.Greater(t, math.Abs(weakest.Weights[0]), math.Abs(weakest.Weights[j]),
			"signal column must dominate noise column %d", j)
	}
}

func TestFitPath_SingleClassResponseFails(t *testing.T) {
	x, _ := signalDataset(50, 3, 5)
	y := make([]float64, 50) // all zeros

	_, err := FitPath(x, y, []float64{0.1}, NewDefaultConfig())
	require.Error(t, err)
}

func TestFitPath_ConstantColumnStaysZero(t *testing.T) {
	x, y := signalDataset(120, 3, 6)
	for i := 0; i < 120; i++ {
		x.Set(i, 2, 7.5)
	}
	cfg := NewDefaultConfig()
	path := LambdaPath(x, y, cfg)

	points, err := FitPath(x, y, path, cfg)
	require.NoError(t, err)
	assert.Zero(t, points[len(points)-1].Weights[2])
}

func TestSoftThreshold(t *testing.T) {
	assert.Equal(t, 0.0, softThreshold(0.3, 0.5))
	assert.Equal(t, 0.0, softThreshold(-0.3, 0.5))
	assert.InDelta(t, 0.5, softThreshold(1.0, 0.5), 1e-12)
	assert.InDelta(t, -0.5, softThreshold(-1.0, 0.5), 1e-12)
}

func TestPredictProb_Bounds(t *testing.T) {
	x, y := signalDataset(80, 4, 7)
	cfg := NewDefaultConfig()
	path := LambdaPath(x, y, cfg)

	points, err := FitPath(x, y, path[:10], cfg)
	require.NoError(t, err)

	probs := points[len(points)-1].PredictProb(x)
	require.Len(t, probs, 80)
	for i, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0, "prob %d", i)
		assert.LessOrEqual(t, p, 1.0, "prob %d", i)
	}
}
