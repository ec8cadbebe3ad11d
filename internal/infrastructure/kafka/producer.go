package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/dto"
)

// deliveryStrategy is shared by publishing and fetching.
var deliveryStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    2 * time.Second,
	Backoff:  2.0,
}

var _ domain.QueueService = (*Producer)(nil)

// Producer publishes classification jobs keyed by job id, so redeliveries of
// the same job land on the same partition.
type Producer struct {
	client   *wbfkafka.Producer
	topic    string
	strategy retry.Strategy
}

func NewProducer(cfg *config.KafkaConfig) *Producer {
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("job producer ready")
	return &Producer{
		client:   wbfkafka.NewProducer(cfg.Brokers, cfg.Topic),
		topic:    cfg.Topic,
		strategy: deliveryStrategy,
	}
}

func (p *Producer) PublishJob(ctx context.Context, jobID string) error {
	payload, err := json.Marshal(dto.JobMessage{JobID: jobID})
	if err != nil {
		return fmt.Errorf("encode job %s: %w", jobID, err)
	}
	if err := p.client.SendWithRetry(ctx, p.strategy, []byte(jobID), payload); err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", jobID).Str("topic", p.topic).Msg("job publish failed")
		return fmt.Errorf("publish job %s: %w", jobID, err)
	}
	zlog.Logger.Debug().Str("job_id", jobID).Str("topic", p.topic).Msg("job published")
	return nil
}

func (p *Producer) Close() error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close job producer: %w", err)
	}
	return nil
}
