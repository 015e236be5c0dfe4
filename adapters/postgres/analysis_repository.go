// Package postgres persists analysis results so readouts can be compared
// across reruns. Persistence is strictly an adapter concern: the
// statistical core never touches storage.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"abx/domain/core"
)

// Analysis kinds stored by the repository.
const (
	KindDiffInMeans  = "diff_in_means"
	KindRatioOfMeans = "ratio_of_means"
	KindSRM          = "srm"
	KindSequential   = "sequential"
)

// AnalysisRecord is one stored analysis outcome. Result holds the
// kind-specific payload as JSON.
type AnalysisRecord struct {
	ID           string          `db:"id" json:"id"`
	ExperimentID string          `db:"experiment_id" json:"experiment_id"`
	Kind         string          `db:"kind" json:"kind"`
	Metric       string          `db:"metric" json:"metric"`
	Result       json.RawMessage `db:"result" json:"result"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// AnalysisRepository stores analysis results in PostgreSQL.
type AnalysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// EnsureSchema creates the analyses table when missing.
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS analyses (
			id            TEXT PRIMARY KEY,
			experiment_id TEXT NOT NULL,
			kind          TEXT NOT NULL,
			metric        TEXT NOT NULL,
			result        JSONB NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS analyses_experiment_idx ON analyses (experiment_id, created_at);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return core.Wrap(err, "failed to ensure analyses schema")
	}
	return nil
}

// Save inserts one analysis record, assigning an ID and timestamp when
// absent. The result payload is marshaled by the caller.
func (r *AnalysisRepository) Save(ctx context.Context, rec *AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = core.NewID().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO analyses (id, experiment_id, kind, metric, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.ExperimentID, rec.Kind, rec.Metric, []byte(rec.Result), rec.CreatedAt)
	if err != nil {
		return core.Wrap(err, "failed to insert analysis record")
	}
	return nil
}

// GetByID fetches one analysis record.
func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	query := `
		SELECT id, experiment_id, kind, metric, result, created_at
		FROM analyses WHERE id = $1`
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewError(core.CodeNotFound, "analysis "+id+" not found")
		}
		return nil, core.Wrap(err, "failed to load analysis record")
	}
	return &rec, nil
}

// ListByExperiment returns the stored analyses for one experiment, newest
// first.
func (r *AnalysisRepository) ListByExperiment(ctx context.Context, experimentID string) ([]AnalysisRecord, error) {
	var recs []AnalysisRecord
	query := `
		SELECT id, experiment_id, kind, metric, result, created_at
		FROM analyses WHERE experiment_id = $1
		ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &recs, query, experimentID); err != nil {
		return nil, core.Wrap(err, "failed to list analysis records")
	}
	return recs, nil
}
