package usecase

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/storage"
)

// Scheduler arranges deferred removal of stored files.
type Scheduler interface {
	Schedule(path string, delay time.Duration)
}

var _ domain.ImageStore = (*ImageStore)(nil)

type ImageStore struct {
	storage   storage.Storage
	scheduler Scheduler
}

func NewImageStore(storage storage.Storage, scheduler Scheduler) *ImageStore {
	return &ImageStore{
		storage:   storage,
		scheduler: scheduler,
	}
}

// Store writes data verbatim under a name derived from filename that is free
// in tier and returns that name.
func (s *ImageStore) Store(ctx context.Context, data []byte, filename string, tier domain.Tier) (string, error) {
	if !tier.Valid() || tier == domain.TierCanonical {
		return "", fmt.Errorf("%w: tier %q is not writable", domain.ErrStorageFailed, tier)
	}

	name, err := storage.UniqueName(ctx, s.storage, tier, filename)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("filename", filename).Str("tier", string(tier)).Msg("failed to pick unique name")
		return "", fmt.Errorf("unique name: %w", err)
	}

	if _, err := s.storage.Save(ctx, tier, name, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}

	if name != filename {
		zlog.Logger.Info().Str("requested", filename).Str("stored", name).Msg("name taken, stored under suffix")
	}
	return name, nil
}

// ScheduleRemoval deletes the file at path (relative to the storage root)
// after delay. Failures are logged and never reported to the caller.
func (s *ImageStore) ScheduleRemoval(path string, delay time.Duration) {
	s.scheduler.Schedule(path, delay)
}

// PathOf returns the storage path of name within tier.
func (s *ImageStore) PathOf(tier domain.Tier, name string) string {
	return s.storage.Path(tier, name)
}
