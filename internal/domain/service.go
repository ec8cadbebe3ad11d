package domain

import (
	"context"
	"image"
	"io"
	"time"
)

type ImageResolver interface {
	Resolve(ctx context.Context, imageID string) (image.Image, error)
	Open(ctx context.Context, imageID string) (io.ReadCloser, Tier, error)
}

type ImageStore interface {
	Store(ctx context.Context, data []byte, filename string, tier Tier) (string, error)
	ScheduleRemoval(path string, delay time.Duration)
}

type ImageEnhancer interface {
	Enhance(ctx context.Context, img image.Image, params EnhanceParams) (string, error)
}

type ClassifierService interface {
	Classify(ctx context.Context, modelID, imageID string) (Classification, error)
	// CheckModel fails with ErrUnknownModel for ids outside the allow-list.
	CheckModel(modelID string) error
	KnownModels() []string
	AvailableImages(ctx context.Context) ([]string, error)
}

// Model is an inference-ready classifier bound to pretrained weights.
// Predict receives a CHW float32 tensor and returns one logit per class.
type Model interface {
	ID() string
	Predict(input []float32) ([]float32, error)
	Close() error
}

type ModelRegistry interface {
	Get(ctx context.Context, modelID string) (Model, error)
	Known() []string
}

type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	FindByID(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, job *Job) error
}

type JobService interface {
	Submit(ctx context.Context, modelID, imageID string) (*Job, error)
	Get(ctx context.Context, id string) (*Job, error)
}

type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}

type QueueService interface {
	PublishJob(ctx context.Context, jobID string) error
	Close() error
}
