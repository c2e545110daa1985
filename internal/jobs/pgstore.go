package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"gameforge/internal/domain"
)

// PGStore mirrors job rows into Postgres so history survives restarts. The
// in-memory table stays authoritative; a write failure here is logged and
// otherwise ignored.
type PGStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPGStore constructs a PGStore on an existing pool.
func NewPGStore(pool *pgxpool.Pool, logger zerolog.Logger) *PGStore {
	return &PGStore{pool: pool, logger: logger}
}

const createJobsTableSQL = `
CREATE TABLE IF NOT EXISTS generation_jobs (
    id            TEXT PRIMARY KEY,
    asset_type    TEXT NOT NULL,
    prompt        TEXT NOT NULL,
    status        TEXT NOT NULL,
    progress      INT NOT NULL DEFAULT 0,
    error_message TEXT,
    result        JSONB,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the mirror table when it does not exist yet.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createJobsTableSQL)
	return err
}

const upsertJobSQL = `
INSERT INTO generation_jobs (id, asset_type, prompt, status, progress, error_message, result, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    status = EXCLUDED.status,
    progress = EXCLUDED.progress,
    error_message = EXCLUDED.error_message,
    result = EXCLUDED.result,
    updated_at = EXCLUDED.updated_at`

// Upsert implements Store.
func (s *PGStore) Upsert(ctx context.Context, job domain.Job) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var result any
	if len(job.ResultJSON) > 0 {
		result = []byte(job.ResultJSON)
	}
	_, err := s.pool.Exec(ctx, upsertJobSQL,
		job.ID,
		string(job.AssetType),
		job.Prompt,
		string(job.Status),
		job.Progress,
		nullable(job.ErrorMessage),
		result,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("job mirror write failed")
		return err
	}
	return nil
}

// Load reads a mirrored job row, used when an ID is not in memory after a
// restart.
func (s *PGStore) Load(ctx context.Context, jobID string) (*domain.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	const q = `
SELECT id, asset_type, prompt, status, progress, COALESCE(error_message, ''), result, created_at, updated_at
FROM generation_jobs WHERE id = $1`

	var (
		job    domain.Job
		status string
		atype  string
		result []byte
	)
	err := s.pool.QueryRow(ctx, q, jobID).Scan(
		&job.ID, &atype, &job.Prompt, &status, &job.Progress,
		&job.ErrorMessage, &result, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	job.AssetType = domain.AssetType(atype)
	job.Status = domain.JobStatus(status)
	job.ResultJSON = result
	return &job, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Store = (*PGStore)(nil)
