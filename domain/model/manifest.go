package model

import (
	"lassosig/domain/core"
)

// LossMetric selects the cross-validation loss
type LossMetric string

const (
	LossMisclassification LossMetric = "misclassification"
	LossDeviance          LossMetric = "deviance"
)

// Valid reports whether the metric is a recognized loss
func (m LossMetric) Valid() bool {
	return m == LossMisclassification || m == LossDeviance
}

// FDRMethod selects the multiple-testing correction procedure
type FDRMethod string

const (
	FDRBenjaminiHochberg FDRMethod = "BH"
	FDRBonferroni        FDRMethod = "bonferroni"
)

// Valid reports whether the method is a recognized correction
func (m FDRMethod) Valid() bool {
	return m == FDRBenjaminiHochberg || m == FDRBonferroni
}

// RunManifest captures the complete specification and outcome of one
// permutation run, so any result table can be traced back to the exact
// configuration that produced it.
type RunManifest struct {
	RunID            core.RunID     `json:"run_id" db:"run_id"`
	Seed             int64          `json:"seed" db:"seed"`
	PermutationCount int            `json:"permutation_count" db:"permutation_count"`
	FoldCount        int            `json:"fold_count" db:"fold_count"`
	LossMetric       LossMetric     `json:"loss_metric" db:"loss_metric"`
	FDRMethod        FDRMethod      `json:"fdr_method" db:"fdr_method"`
	Observations     int            `json:"observations" db:"observations"`
	Terms            int            `json:"terms" db:"terms"`
	RetriedShuffles  int            `json:"retried_shuffles" db:"retried_shuffles"`
	SelectedLambda   float64        `json:"selected_lambda" db:"selected_lambda"`
	RuntimeMs        int64          `json:"runtime_ms" db:"runtime_ms"`
	CreatedAt        core.Timestamp `json:"created_at" db:"created_at"`
}
