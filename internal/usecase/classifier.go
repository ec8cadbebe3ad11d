package usecase

import (
	"context"
	"fmt"
	"image"
	"slices"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/processor"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/storage"
)

// Labels maps class ids to class names.
type Labels interface {
	Label(classID int) (string, error)
}

type Resolver interface {
	Resolve(ctx context.Context, imageID string) (image.Image, error)
}

// Observer receives the outcome of every classification.
type Observer interface {
	ObserveClassification(modelID string, took time.Duration, err error)
}

var _ domain.ClassifierService = (*Classifier)(nil)

type Classifier struct {
	resolver   Resolver
	registry   domain.ModelRegistry
	labels     Labels
	storage    storage.Storage
	extensions []string
	observer   Observer
}

func NewClassifier(
	resolver Resolver,
	registry domain.ModelRegistry,
	labels Labels,
	storage storage.Storage,
	extensions []string,
) *Classifier {
	return &Classifier{
		resolver:   resolver,
		registry:   registry,
		labels:     labels,
		storage:    storage,
		extensions: extensions,
	}
}

func (c *Classifier) SetObserver(o Observer) {
	c.observer = o
}

// Classify returns the top-5 labels for imageID under modelID, ordered by
// descending confidence percentage.
func (c *Classifier) Classify(ctx context.Context, modelID, imageID string) (domain.Classification, error) {
	start := time.Now()
	result, err := c.classify(ctx, modelID, imageID)
	if c.observer != nil {
		c.observer.ObserveClassification(modelID, time.Since(start), err)
	}
	return result, err
}

// CheckModel rejects model ids outside the registry allow-list without
// touching storage or loading weights.
func (c *Classifier) CheckModel(modelID string) error {
	if !slices.Contains(c.registry.Known(), modelID) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownModel, modelID)
	}
	return nil
}

func (c *Classifier) classify(ctx context.Context, modelID, imageID string) (domain.Classification, error) {
	if err := c.CheckModel(modelID); err != nil {
		return nil, err
	}

	img, err := c.resolver.Resolve(ctx, imageID)
	if err != nil {
		return nil, err
	}

	model, err := c.registry.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}

	input := processor.Preprocess(img)

	logits, err := model.Predict(input)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("model_id", modelID).Str("image_id", imageID).Msg("inference failed")
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(logits) == 0 {
		return nil, fmt.Errorf("%w: model %s returned no logits", domain.ErrInferenceFailed, modelID)
	}

	percent := Softmax(logits)
	top := TopIndices(logits, domain.TopK)

	result := make(domain.Classification, 0, len(top))
	for _, idx := range top {
		label, err := c.labels.Label(idx)
		if err != nil {
			zlog.Logger.Error().Err(err).Str("model_id", modelID).Int("class_id", idx).Msg("label lookup failed")
			return nil, err
		}
		result = append(result, domain.Prediction{Label: label, Score: percent[idx]})
	}

	zlog.Logger.Info().
		Str("model_id", modelID).
		Str("image_id", imageID).
		Str("top_label", result[0].Label).
		Float64("top_score", result[0].Score).
		Msg("image classified")
	return result, nil
}

func (c *Classifier) KnownModels() []string {
	return c.registry.Known()
}

// AvailableImages lists canonical dataset images whose names end with one of
// the configured extensions. The match is case sensitive.
func (c *Classifier) AvailableImages(ctx context.Context) ([]string, error) {
	names, err := c.storage.List(ctx, domain.TierCanonical)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list canonical images")
		return nil, fmt.Errorf("list canonical images: %w", err)
	}

	images := make([]string, 0, len(names))
	for _, name := range names {
		for _, ext := range c.extensions {
			if strings.HasSuffix(name, ext) {
				images = append(images, name)
				break
			}
		}
	}
	return images, nil
}
