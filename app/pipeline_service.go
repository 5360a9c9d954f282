// Package app wires the inference stages into runnable services.
package app

import (
	"context"
	stderrors "errors"
	"time"

	"lassosig/adapters/lasso"
	"lassosig/domain/core"
	"lassosig/domain/model"
	"lassosig/internal"
	"lassosig/internal/config"
	"lassosig/internal/diagnostics"
	"lassosig/internal/errors"
	"lassosig/internal/permutation"
	"lassosig/internal/significance"
	"lassosig/ports"
)

// PipelineService runs the full significance pipeline: observed fit,
// permutation null, empirical p-values, multiple-testing correction.
type PipelineService struct {
	cfg    config.PipelineConfig
	engine *permutation.Engine
	logger *internal.Logger
}

// RunResult is the complete output of one pipeline run
type RunResult struct {
	Manifest  model.RunManifest         `json:"manifest"`
	Table     *model.ResultTable        `json:"table"`
	NullStats []diagnostics.NullSummary `json:"null_stats,omitempty"`
}

// NewPipelineService builds the service from validated configuration,
// constructing the cross-validated fitter and permutation engine it drives.
func NewPipelineService(cfg config.PipelineConfig, rngPort ports.RNGPort, logger *internal.Logger) (*PipelineService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	fitter, err := lasso.NewCVFitter(cfg.FoldCount, cfg.LossMetric, lasso.NewDefaultConfig())
	if err != nil {
		return nil, errors.Wrapf(err, "building %d-fold cross-validated fitter", cfg.FoldCount)
	}

	return &PipelineService{
		cfg:    cfg,
		engine: permutation.NewEngine(fitter, rngPort, logger),
		logger: logger,
	}, nil
}

// Run executes the pipeline against a validated dataset and returns the
// result table with its manifest. The same configuration, seed, and dataset
// always produce the same table, regardless of the worker count.
func (s *PipelineService) Run(ctx context.Context, ds *model.Dataset) (*RunResult, error) {
	startTime := time.Now()
	runID := core.NewRunID()

	zeros, ones := ds.ClassCounts()
	s.logger.Info("run %s: n=%d (%d/%d classes) p=%d permutations=%d seed=%d",
		runID, ds.Rows(), zeros, ones, ds.Cols(), s.cfg.PermutationCount, s.cfg.Seed)

	permResult, err := s.engine.Run(ctx, ds, permutation.Config{
		PermutationCount: s.cfg.PermutationCount,
		Seed:             s.cfg.Seed,
		Workers:          s.cfg.Workers,
		MaxShuffleRetry:  s.cfg.MaxShuffleRetry,
	})
	if err != nil {
		return nil, classifyRunError(err)
	}

	aggregator := significance.Aggregator{Smooth: s.cfg.SmoothPValues}
	pvalues, err := aggregator.Aggregate(permResult.Observed, permResult.Null)
	if err != nil {
		return nil, errors.Wrap(err, "p-value aggregation failed")
	}

	qvalues, err := significance.Correct(pvalues, s.cfg.FDRMethod)
	if err != nil {
		return nil, errors.Wrap(err, "multiple-testing correction failed")
	}

	table, err := model.NewResultTable(ds.Terms, permResult.Observed, pvalues, qvalues)
	if err != nil {
		return nil, errors.Wrap(err, "assembling result table")
	}

	nullStats, err := diagnostics.Summarize(permResult.Observed, permResult.Null)
	if err != nil {
		// diagnostics are a side channel; the table stands without them
		s.logger.Warn("null summary skipped: %v", err)
		nullStats = nil
	}

	manifest := model.RunManifest{
		RunID:            runID,
		Seed:             s.cfg.Seed,
		PermutationCount: s.cfg.PermutationCount,
		FoldCount:        s.cfg.FoldCount,
		LossMetric:       s.cfg.LossMetric,
		FDRMethod:        s.cfg.FDRMethod,
		Observations:     ds.Rows(),
		Terms:            ds.Cols(),
		RetriedShuffles:  permResult.RetriedShuffles,
		SelectedLambda:   permResult.ObservedLambda,
		RuntimeMs:        time.Since(startTime).Milliseconds(),
		CreatedAt:        core.Now(),
	}

	s.logger.Info("run %s complete in %dms: %d of %d terms nonzero, lambda=%.6g",
		runID, manifest.RuntimeMs, permResult.Observed.NonzeroCount(), ds.Cols(), permResult.ObservedLambda)

	return &RunResult{Manifest: manifest, Table: table, NullStats: nullStats}, nil
}

// classifyRunError maps permutation-stage failures onto the coded error
// scheme while preserving the sentinel chain for errors.Is checks.
func classifyRunError(err error) error {
	switch {
	case core.IsInputError(err):
		return errors.WithCode(errors.CodeInvalidInput, err)
	case core.IsDegenerateResponse(err), stderrors.Is(err, core.ErrRetriesExhausted):
		return errors.WithCode(errors.CodeDegenerateResponse, err)
	case core.IsFitError(err):
		return errors.WithCode(errors.CodeNonConvergence, err)
	default:
		return errors.Wrap(err, "permutation stage failed")
	}
}

// RunAndStore executes the pipeline and persists the outcome when a store is
// configured. Persistence failure does not discard the computed result.
func (s *PipelineService) RunAndStore(ctx context.Context, ds *model.Dataset, store ports.ResultStore) (*RunResult, error) {
	result, err := s.Run(ctx, ds)
	if err != nil {
		return nil, err
	}
	if store != nil {
		if err := store.SaveRun(ctx, ports.StoredRun{Manifest: result.Manifest, Table: result.Table}); err != nil {
			s.logger.Error("run %s computed but not persisted: %v", result.Manifest.RunID, err)
			return result, errors.StoreError("saving run", err)
		}
	}
	return result, nil
}
