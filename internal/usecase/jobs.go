package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
)

var (
	_ domain.JobService   = (*JobUsecase)(nil)
	_ domain.JobProcessor = (*JobProcessor)(nil)
)

type JobUsecase struct {
	repo   domain.JobRepository
	queue  domain.QueueService
	models []string
}

func NewJobUsecase(repo domain.JobRepository, queue domain.QueueService, models []string) *JobUsecase {
	return &JobUsecase{
		repo:   repo,
		queue:  queue,
		models: models,
	}
}

// Submit records a pending classification job and hands it to the queue.
func (u *JobUsecase) Submit(ctx context.Context, modelID, imageID string) (*domain.Job, error) {
	if !slices.Contains(u.models, modelID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModel, modelID)
	}

	now := time.Now()
	job := &domain.Job{
		ID:        uuid.New().String(),
		ImageID:   imageID,
		ModelID:   modelID,
		Status:    domain.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.repo.Create(ctx, job); err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to create job record")
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := u.queue.PublishJob(ctx, job.ID); err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to publish job")
		job.MarkAsFailed("failed to enqueue job")
		if uerr := u.repo.Update(ctx, job); uerr != nil {
			zlog.Logger.Error().Err(uerr).Str("job_id", job.ID).Msg("failed to mark job as failed")
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrQueueFailed, err)
	}

	zlog.Logger.Info().
		Str("job_id", job.ID).
		Str("image_id", imageID).
		Str("model_id", modelID).
		Msg("classification job submitted")
	return job, nil
}

func (u *JobUsecase) Get(ctx context.Context, id string) (*domain.Job, error) {
	return u.repo.FindByID(ctx, id)
}

type ClassifyFunc func(ctx context.Context, modelID, imageID string) (domain.Classification, error)

type JobProcessor struct {
	repo     domain.JobRepository
	classify ClassifyFunc
}

func NewJobProcessor(repo domain.JobRepository, classify ClassifyFunc) *JobProcessor {
	return &JobProcessor{
		repo:     repo,
		classify: classify,
	}
}

// ProcessJob runs a pending job. Classification failures are recorded on the
// job and are not returned; only bookkeeping failures are.
func (p *JobProcessor) ProcessJob(ctx context.Context, jobID string) error {
	job, err := p.repo.FindByID(ctx, jobID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", jobID).Msg("failed to find job")
		return fmt.Errorf("find job: %w", err)
	}

	if !job.CanBeProcessed() {
		zlog.Logger.Warn().
			Str("job_id", jobID).
			Str("status", string(job.Status)).
			Msg("job cannot be processed in current status")
		return nil
	}

	job.MarkAsProcessing()
	if err := p.repo.Update(ctx, job); err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", jobID).Msg("failed to update status to processing")
		return fmt.Errorf("update status to processing: %w", err)
	}

	result, err := p.classify(ctx, job.ModelID, job.ImageID)
	if err != nil {
		job.MarkAsFailed(err.Error())
		if uerr := p.repo.Update(ctx, job); uerr != nil {
			zlog.Logger.Error().Err(uerr).Str("job_id", jobID).Msg("failed to update status to failed")
			return fmt.Errorf("update status to failed: %w", errors.Join(err, uerr))
		}
		zlog.Logger.Warn().Err(err).Str("job_id", jobID).Msg("classification job failed")
		return nil
	}

	job.MarkAsCompleted(result)
	if err := p.repo.Update(ctx, job); err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", jobID).Msg("failed to update status to completed")
		// The queue message is not redelivered, so leave the job failed rather
		// than processing.
		job.MarkAsFailed(fmt.Sprintf("store result: %v", err))
		if uerr := p.repo.Update(ctx, job); uerr != nil {
			zlog.Logger.Error().Err(uerr).Str("job_id", jobID).Msg("failed to update status to failed")
		}
		return fmt.Errorf("update status to completed: %w", err)
	}

	zlog.Logger.Info().Str("job_id", jobID).Str("model_id", job.ModelID).Msg("classification job completed")
	return nil
}
