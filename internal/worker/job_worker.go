package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/dto"
)

// JobWorker handles classification job messages from the queue.
type JobWorker struct {
	processor domain.JobProcessor
}

func NewJobWorker(processor domain.JobProcessor) *JobWorker {
	return &JobWorker{processor: processor}
}

func (w *JobWorker) HandleJob(ctx context.Context, msg *dto.JobMessage) error {
	if msg == nil || msg.JobID == "" {
		return fmt.Errorf("empty job id")
	}

	zlog.Logger.Info().Str("job_id", msg.JobID).Msg("starting classification job")

	if err := w.processor.ProcessJob(ctx, msg.JobID); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			// nothing to retry, let the message be committed
			zlog.Logger.Warn().Str("job_id", msg.JobID).Msg("job record not found, dropping message")
			return nil
		}
		zlog.Logger.Error().Err(err).Str("job_id", msg.JobID).Msg("failed to process job")
		return fmt.Errorf("process job %s: %w", msg.JobID, err)
	}
	return nil
}
