// Package testkit provides seeded synthetic datasets and in-memory fakes for
// tests and demos.
package testkit

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"lassosig/domain/model"
)

// GeneratorConfig controls the synthetic dataset shape
type GeneratorConfig struct {
	Rows         int
	Columns      int
	Seed         int64
	SignalColumn int     // zero-based column driving the response; -1 for pure noise
	NoiseRate    float64 // fraction of labels flipped after thresholding
}

// DefaultGeneratorConfig matches the standard evaluation scenario: 30
// independent standard-normal predictors with the response thresholded from
// the fourth column.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Rows:         200,
		Columns:      30,
		Seed:         42,
		SignalColumn: 3,
		NoiseRate:    0.05,
	}
}

// GenerateSignal builds a dataset where the response is a threshold of one
// predictor column, with optional label noise.
func GenerateSignal(cfg GeneratorConfig) (*model.Dataset, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	x := mat.NewDense(cfg.Rows, cfg.Columns, nil)
	y := make([]float64, cfg.Rows)

	for i := 0; i < cfg.Rows; i++ {
		for j := 0; j < cfg.Columns; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
		if cfg.SignalColumn >= 0 && x.At(i, cfg.SignalColumn) > 0 {
			y[i] = 1
		}
		if cfg.SignalColumn >= 0 && cfg.NoiseRate > 0 && rng.Float64() < cfg.NoiseRate {
			y[i] = 1 - y[i]
		}
	}

	if cfg.SignalColumn < 0 {
		// pure noise: labels independent of every predictor
		for i := range y {
			if rng.Float64() < 0.5 {
				y[i] = 1
			} else {
				y[i] = 0
			}
		}
	}

	return model.NewDataset(x, y, nil)
}

// GenerateNoise builds a dataset with no predictor-response association
func GenerateNoise(cfg GeneratorConfig) (*model.Dataset, error) {
	cfg.SignalColumn = -1
	return GenerateSignal(cfg)
}
