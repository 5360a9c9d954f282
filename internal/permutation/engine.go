// Package permutation orchestrates the shuffle-refit loop that builds the
// null distribution of coefficient estimates.
package permutation

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"golang.org/x/sync/semaphore"

	"lassosig/domain/core"
	"lassosig/domain/model"
	"lassosig/internal"
	"lassosig/ports"
)

// stream names for seed derivation; changing these changes every result
const (
	streamShuffle = "shuffle"
	streamFolds   = "folds"
)

// Config holds the engine settings
type Config struct {
	PermutationCount int
	Seed             int64
	Workers          int // concurrent refits; 0 or 1 runs sequentially
	MaxShuffleRetry  int // re-draws allowed when a shuffled fit degenerates
}

// Result is the outcome of one engine run
type Result struct {
	Observed        model.CoefficientVector
	ObservedLambda  float64
	Null            *model.NullMatrix
	RetriedShuffles int
}

// Engine runs the observed fit once and the permuted refits N times. Each
// iteration's randomness is a pure function of (seed, iteration index), so
// the run is reproducible for any worker count.
type Engine struct {
	fitter ports.RegularizedFitter
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewEngine creates a permutation engine
func NewEngine(fitter ports.RegularizedFitter, rngPort ports.RNGPort, logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{fitter: fitter, rng: rngPort, logger: logger}
}

// Run executes the observed fit and cfg.PermutationCount permuted refits.
// X is never permuted; only the response labels are shuffled.
func (e *Engine) Run(ctx context.Context, ds *model.Dataset, cfg Config) (*Result, error) {
	if cfg.PermutationCount < 1 {
		return nil, core.ErrZeroPermutations
	}

	observedFit, err := e.fitter.Fit(ctx, ds.X, ds.Y, ds.Terms, e.foldSeed(cfg, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("observed fit: %w", err)
	}
	observed := observedFit.Coefficients
	e.logger.Debug("observed fit complete: lambda=%.6g, %d of %d terms nonzero",
		observedFit.Lambda, observed.NonzeroCount(), observed.Len())

	samples := make([]model.CoefficientVector, cfg.PermutationCount)
	retries := make([]int, cfg.PermutationCount)

	if cfg.Workers <= 1 {
		for i := 0; i < cfg.PermutationCount; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			samples[i], retries[i], err = e.runIteration(ctx, ds, cfg, i)
			if err != nil {
				return nil, err
			}
			if (i+1)%25 == 0 {
				e.logger.Debug("permutation progress: %d/%d", i+1, cfg.PermutationCount)
			}
		}
	} else {
		if err := e.runParallel(ctx, ds, cfg, samples, retries); err != nil {
			return nil, err
		}
	}

	null, err := model.NewNullMatrix(ds.Terms, samples)
	if err != nil {
		return nil, err
	}

	totalRetries := 0
	for _, r := range retries {
		totalRetries += r
	}
	if totalRetries > 0 {
		e.logger.Info("permutation run re-drew %d degenerate shuffles", totalRetries)
	}

	return &Result{
		Observed:        observed,
		ObservedLambda:  observedFit.Lambda,
		Null:            null,
		RetriedShuffles: totalRetries,
	}, nil
}

// runParallel executes iterations under a weighted semaphore, collecting
// results by permutation index rather than completion order.
func (e *Engine) runParallel(ctx context.Context, ds *model.Dataset, cfg Config, samples []model.CoefficientVector, retries []int) error {
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < cfg.PermutationCount; i++ {
		if err := sem.Acquire(runCtx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer sem.Release(1)

			sample, retried, err := e.runIteration(runCtx, ds, cfg, index)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				cancel()
				return
			}
			samples[index] = sample
			retries[index] = retried
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// runIteration shuffles the response for one permutation index and refits,
// re-drawing the shuffle up to the retry cap when the fit degenerates.
func (e *Engine) runIteration(ctx context.Context, ds *model.Dataset, cfg Config, index int) (model.CoefficientVector, int, error) {
	rng := e.rng.Stream(streamShuffle, cfg.Seed, index+1)

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxShuffleRetry; attempt++ {
		if err := ctx.Err(); err != nil {
			return model.CoefficientVector{}, attempt, err
		}

		shuffled := shuffleResponse(ds.Y, rng)
		fit, err := e.fitter.Fit(ctx, ds.X, shuffled, ds.Terms, e.foldSeed(cfg, index+1, attempt))
		if err == nil {
			return fit.Coefficients, attempt, nil
		}
		if !core.IsFitError(err) {
			return model.CoefficientVector{}, attempt, core.NewFitError(index, err)
		}
		lastErr = err
		e.logger.Debug("permutation %d attempt %d degenerate: %v", index, attempt, err)
	}
	return model.CoefficientVector{}, cfg.MaxShuffleRetry,
		fmt.Errorf("%w: permutation %d: %v", core.ErrRetriesExhausted, index, lastErr)
}

// foldSeed derives the CV fold seed for (iteration, attempt); iteration 0 is
// the observed fit.
func (e *Engine) foldSeed(cfg Config, iteration, attempt int) int64 {
	return e.rng.DeriveSeed(streamFolds, cfg.Seed, iteration*(cfg.MaxShuffleRetry+1)+attempt)
}

// shuffleResponse returns a Fisher-Yates shuffled copy; the input is never
// mutated.
func shuffleResponse(y []float64, rng *rand.Rand) []float64 {
	shuffled := make([]float64, len(y))
	copy(shuffled, y)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
