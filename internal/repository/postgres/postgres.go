package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
)

// DB is the subset of *pgxpool.Pool used by the repository
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const schema = `
	CREATE TABLE IF NOT EXISTS image_jobs (
		id          TEXT PRIMARY KEY,
		status      TEXT NOT NULL,
		progress    INTEGER NOT NULL,
		filename    TEXT NOT NULL,
		field_id    TEXT NOT NULL DEFAULT '',
		result      JSONB,
		error       TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS prediction_logs (
		id                   BIGSERIAL PRIMARY KEY,
		location             TEXT NOT NULL,
		region               TEXT NOT NULL,
		overall_health_score DOUBLE PRECISION NOT NULL,
		dominant_class       TEXT NOT NULL,
		metrics              JSONB NOT NULL,
		is_simulated         BOOLEAN NOT NULL,
		analysis_timestamp   TIMESTAMPTZ NOT NULL
	);
`

// PostgresRepository implements domain.JobStore and domain.PredictionLogRepository
type PostgresRepository struct {
	pool DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool DB) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the tables used by the repository if they are missing
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

// Create persists a new image job
func (r *PostgresRepository) Create(ctx context.Context, job domain.ImageJob) error {
	query := `
		INSERT INTO image_jobs (
			id, status, progress, filename, field_id, result, error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	result, err := marshalResult(job.Result)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.Progress, job.Filename, job.FieldID,
		result, job.Error, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to create job: %w", err)
	}

	return nil
}

// Get retrieves an image job by id
func (r *PostgresRepository) Get(ctx context.Context, id string) (domain.ImageJob, error) {
	query := `
		SELECT id, status, progress, filename, field_id, result, error, created_at, updated_at
		FROM image_jobs
		WHERE id = $1
	`

	var (
		job    domain.ImageJob
		status string
		result []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &status, &job.Progress, &job.Filename, &job.FieldID,
		&result, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ImageJob{}, domain.ErrJobNotFound
	}
	if err != nil {
		return domain.ImageJob{}, fmt.Errorf("postgres: failed to get job: %w", err)
	}

	job.Status = domain.JobStatus(status)
	if len(result) > 0 {
		var a domain.ImageAnalysis
		if err := json.Unmarshal(result, &a); err != nil {
			return domain.ImageJob{}, fmt.Errorf("postgres: failed to decode job result: %w", err)
		}
		job.Result = &a
	}

	return job, nil
}

// Update replaces a job that is still processing
func (r *PostgresRepository) Update(ctx context.Context, job domain.ImageJob) error {
	query := `
		UPDATE image_jobs
		SET status = $2, progress = $3, result = $4, error = $5, updated_at = $6
		WHERE id = $1 AND status = $7
	`

	result, err := marshalResult(job.Result)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.Progress, result, job.Error, job.UpdatedAt,
		string(domain.JobProcessing),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// distinguish a finished job from a missing one
		if _, err := r.Get(ctx, job.ID); err != nil {
			return err
		}
		return domain.ErrJobTerminal
	}

	return nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

// SavePredictionLog persists a served location prediction to PostgreSQL
func (r *PostgresRepository) SavePredictionLog(ctx context.Context, p domain.LocationPrediction) error {
	query := `
		INSERT INTO prediction_logs (
			location, region, overall_health_score, dominant_class,
			metrics, is_simulated, analysis_timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	metrics, err := json.Marshal(p.HealthMetrics)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode metrics: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		p.Location, p.Region, p.OverallHealthScore, string(p.DominantClass),
		metrics, p.Simulated, p.AnalysisTimestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save prediction log: %w", err)
	}

	return nil
}

// marshalResult encodes a job result for the JSONB column, nil stays NULL
func marshalResult(a *domain.ImageAnalysis) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to encode job result: %w", err)
	}
	return b, nil
}
