package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/dto"
)

type MessageHandler func(ctx context.Context, msg *dto.JobMessage) error

type Consumer struct {
	client  *wbfkafka.Consumer
	handler MessageHandler
	topic   string
}

func NewConsumer(cfg *config.KafkaConfig, handler MessageHandler) (*Consumer, error) {
	client := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)

	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("group_id", cfg.GroupID).
		Msg("job consumer ready")

	return &Consumer{
		client:  client,
		handler: handler,
		topic:   cfg.Topic,
	}, nil
}

// Start fetches job messages until ctx is cancelled. Successful and malformed
// messages are committed. A message whose handler fails is not committed, but
// the reader has already moved past it and the next commit covers it, so it is
// not redelivered; the job processor records such jobs as failed.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("job consumer stopped")
			return nil
		default:
		}

		msg, err := c.client.FetchWithRetry(ctx, deliveryStrategy)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			zlog.Logger.Error().Err(err).Msg("job fetch failed")
			time.Sleep(time.Second)
			continue
		}

		job, err := decodeJobMessage(msg.Value)
		if err != nil {
			zlog.Logger.Error().
				Err(err).
				Bytes("msg", msg.Value).
				Msg("Skipping malformed job message")
			if cerr := c.client.Commit(ctx, msg); cerr != nil {
				zlog.Logger.Error().Err(cerr).Msg("Failed to commit malformed message")
			}
			continue
		}

		if err := c.handler(ctx, job); err != nil {
			zlog.Logger.Error().Err(err).Str("job_id", job.JobID).Msg("job handling failed, message dropped")
			continue
		}

		if err := c.client.Commit(ctx, msg); err != nil {
			zlog.Logger.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to commit message")
			continue
		}
	}
}

func decodeJobMessage(data []byte) (*dto.JobMessage, error) {
	var job dto.JobMessage
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job message: %w", err)
	}
	if job.JobID == "" {
		return nil, fmt.Errorf("job message has no job_id")
	}
	return &job, nil
}

func (c *Consumer) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close job consumer: %w", err)
	}
	return nil
}
