// Package postgres persists completed runs behind ports.ResultStore.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"lassosig/domain/core"
	"lassosig/domain/model"
	"lassosig/ports"
)

// RunRepository stores run manifests and their result rows in PostgreSQL
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Connect opens a sqlx connection pool against the given database URL
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// EnsureSchema creates the run tables if they do not exist
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			seed              BIGINT NOT NULL,
			permutation_count INTEGER NOT NULL,
			fold_count        INTEGER NOT NULL,
			loss_metric       TEXT NOT NULL,
			fdr_method        TEXT NOT NULL,
			observations      INTEGER NOT NULL,
			terms             INTEGER NOT NULL,
			retried_shuffles  INTEGER NOT NULL DEFAULT 0,
			selected_lambda   DOUBLE PRECISION NOT NULL,
			runtime_ms        BIGINT NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS run_results (
			run_id   TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			term     TEXT NOT NULL,
			estimate DOUBLE PRECISION NOT NULL,
			p_value  DOUBLE PRECISION NOT NULL,
			q_value  DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create run schema: %w", err)
	}
	return nil
}

// SaveRun persists the manifest and every result row in one transaction
func (r *RunRepository) SaveRun(ctx context.Context, run ports.StoredRun) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	manifestQuery := `
		INSERT INTO runs (
			run_id, seed, permutation_count, fold_count, loss_metric,
			fdr_method, observations, terms, retried_shuffles,
			selected_lambda, runtime_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	m := run.Manifest
	if _, err := tx.ExecContext(ctx, manifestQuery,
		m.RunID.String(),
		m.Seed,
		m.PermutationCount,
		m.FoldCount,
		string(m.LossMetric),
		string(m.FDRMethod),
		m.Observations,
		m.Terms,
		m.RetriedShuffles,
		m.SelectedLambda,
		m.RuntimeMs,
		m.CreatedAt.Time(),
	); err != nil {
		return fmt.Errorf("failed to insert run manifest: %w", err)
	}

	rowQuery := `
		INSERT INTO run_results (run_id, position, term, estimate, p_value, q_value)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for i, row := range run.Table.Rows {
		if _, err := tx.ExecContext(ctx, rowQuery,
			m.RunID.String(), i, row.Term.String(), row.Estimate, row.PValue, row.QValue,
		); err != nil {
			return fmt.Errorf("failed to insert result row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", m.RunID, err)
	}
	return nil
}

// GetRun loads one manifest with its result rows in stored order
func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*ports.StoredRun, error) {
	manifest, err := r.getManifest(ctx, id)
	if err != nil {
		return nil, err
	}

	rowQuery := `
		SELECT term, estimate, p_value, q_value
		FROM run_results
		WHERE run_id = $1
		ORDER BY position`

	var rows []model.ResultRow
	if err := r.db.SelectContext(ctx, &rows, rowQuery, id.String()); err != nil {
		return nil, fmt.Errorf("failed to load result rows for %s: %w", id, err)
	}

	return &ports.StoredRun{
		Manifest: *manifest,
		Table:    &model.ResultTable{Rows: rows},
	}, nil
}

// ListRuns returns the most recent manifests, newest first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]model.RunManifest, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT run_id, seed, permutation_count, fold_count, loss_metric,
			   fdr_method, observations, terms, retried_shuffles,
			   selected_lambda, runtime_ms, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var manifests []model.RunManifest
	for rows.Next() {
		m, err := scanManifest(rows)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, *m)
	}
	return manifests, rows.Err()
}

func (r *RunRepository) getManifest(ctx context.Context, id core.RunID) (*model.RunManifest, error) {
	query := `
		SELECT run_id, seed, permutation_count, fold_count, loss_metric,
			   fdr_method, observations, terms, retried_shuffles,
			   selected_lambda, runtime_ms, created_at
		FROM runs
		WHERE run_id = $1`

	row := r.db.QueryRowxContext(ctx, query, id.String())
	m, err := scanManifest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanManifest(s rowScanner) (*model.RunManifest, error) {
	var (
		m         model.RunManifest
		runID     string
		loss      string
		method    string
		createdAt time.Time
	)
	if err := s.Scan(
		&runID, &m.Seed, &m.PermutationCount, &m.FoldCount, &loss,
		&method, &m.Observations, &m.Terms, &m.RetriedShuffles,
		&m.SelectedLambda, &m.RuntimeMs, &createdAt,
	); err != nil {
		return nil, err
	}
	m.RunID = core.RunID(runID)
	m.LossMetric = model.LossMetric(loss)
	m.FDRMethod = model.FDRMethod(method)
	m.CreatedAt = core.NewTimestamp(createdAt)
	return &m, nil
}
