package ports

import (
	"context"

	"lassosig/domain/core"
	"lassosig/domain/model"
)

// StoredRun is a persisted run: the manifest plus its result table
type StoredRun struct {
	Manifest model.RunManifest  `json:"manifest"`
	Table    *model.ResultTable `json:"table"`
}

// ResultStore persists completed runs for later retrieval
type ResultStore interface {
	SaveRun(ctx context.Context, run StoredRun) error
	GetRun(ctx context.Context, id core.RunID) (*StoredRun, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunManifest, error)
}
