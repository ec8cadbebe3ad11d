package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
)

// DefaultStrategy is the retry policy for job writes.
var DefaultStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    500 * time.Millisecond,
	Backoff:  2.0,
}

type jobRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewJobRepository(db *dbpg.DB, strategy retry.Strategy) domain.JobRepository {
	return &jobRepository{
		db:       db,
		strategy: strategy,
	}
}

func (r *jobRepository) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO classification_jobs (
			id, image_id, model_id, status, result,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	result, err := marshalResult(job.Result)
	if err != nil {
		return err
	}

	_, err = r.db.ExecWithRetry(ctx, r.strategy, query,
		job.ID,
		job.ImageID,
		job.ModelID,
		job.Status,
		result,
		nullString(job.ErrorMessage),
		job.CreatedAt,
		job.UpdatedAt,
		job.CompletedAt,
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to create job")
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *jobRepository) FindByID(ctx context.Context, id string) (*domain.Job, error) {
	// ids are uuid columns; anything else cannot exist
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, id)
	}

	query := `
		SELECT id, image_id, model_id, status, result,
			   error_message, created_at, updated_at, completed_at
		FROM classification_jobs
		WHERE id = $1
	`

	var job domain.Job
	var result []byte
	var errorMsg sql.NullString
	var completedAt sql.NullTime

	row := r.db.Master.QueryRowContext(ctx, query, id)
	err := row.Scan(
		&job.ID,
		&job.ImageID,
		&job.ModelID,
		&job.Status,
		&result,
		&errorMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", id).Msg("failed to find job")
		return nil, fmt.Errorf("find job: %w", err)
	}

	if len(result) > 0 {
		if err := json.Unmarshal(result, &job.Result); err != nil {
			return nil, fmt.Errorf("decode job result: %w", err)
		}
	}
	if errorMsg.Valid {
		job.ErrorMessage = errorMsg.String
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}

func (r *jobRepository) Update(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE classification_jobs
		SET status = $2, result = $3, error_message = $4,
			updated_at = $5, completed_at = $6
		WHERE id = $1
	`

	result, err := marshalResult(job.Result)
	if err != nil {
		return err
	}

	res, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		job.ID,
		job.Status,
		result,
		nullString(job.ErrorMessage),
		job.UpdatedAt,
		job.CompletedAt,
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to update job")
		return fmt.Errorf("update job: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func marshalResult(result domain.Classification) ([]byte, error) {
	if len(result) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode job result: %w", err)
	}
	return data, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
