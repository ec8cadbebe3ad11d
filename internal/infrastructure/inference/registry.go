package inference

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"golang.org/x/sync/singleflight"
)

// LoaderFunc builds an inference-ready model for an architecture.
type LoaderFunc func(ctx context.Context, arch Architecture) (domain.Model, error)

var _ domain.ModelRegistry = (*Registry)(nil)

// Registry lazily loads and caches models. Loaded models are shared by all
// callers and never mutated.
type Registry struct {
	allowed []string
	loader  LoaderFunc

	mu     sync.RWMutex
	models map[string]domain.Model
	group  singleflight.Group
}

// NewRegistry restricts the registry to allowed, which must only name known
// architectures. Order is preserved for Known. An empty allowed list serves
// every known architecture.
func NewRegistry(allowed []string, loader LoaderFunc) (*Registry, error) {
	if loader == nil {
		return nil, fmt.Errorf("%w: model loader is nil", domain.ErrConfiguration)
	}
	if len(allowed) == 0 {
		allowed = ArchitectureIDs()
	}
	for _, id := range allowed {
		if _, ok := LookupArchitecture(id); !ok {
			return nil, fmt.Errorf("%w: %s (known: %s)", domain.ErrUnknownModel, id, strings.Join(ArchitectureIDs(), ", "))
		}
	}
	return &Registry{
		allowed: slices.Clone(allowed),
		loader:  loader,
		models:  make(map[string]domain.Model),
	}, nil
}

func (r *Registry) Known() []string {
	return slices.Clone(r.allowed)
}

func (r *Registry) Get(ctx context.Context, modelID string) (domain.Model, error) {
	if !slices.Contains(r.allowed, modelID) {
		zlog.Logger.Warn().Str("model_id", modelID).Msg("unknown model requested")
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModel, modelID)
	}

	r.mu.RLock()
	m, ok := r.models[modelID]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	v, err, _ := r.group.Do(modelID, func() (any, error) {
		r.mu.RLock()
		m, ok := r.models[modelID]
		r.mu.RUnlock()
		if ok {
			return m, nil
		}

		arch, _ := LookupArchitecture(modelID)
		zlog.Logger.Info().Str("model_id", modelID).Str("weights", arch.WeightsFile).Msg("loading model")
		m, err := r.loader(ctx, arch)
		if err != nil {
			zlog.Logger.Error().Err(err).Str("model_id", modelID).Msg("failed to load model")
			return nil, fmt.Errorf("load model %s: %w", modelID, err)
		}

		r.mu.Lock()
		r.models[modelID] = m
		r.mu.Unlock()
		zlog.Logger.Info().Str("model_id", modelID).Msg("model loaded")
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.Model), nil
}

// Prewarm loads every allowed model so that the first request does not pay
// for weight download and session creation.
func (r *Registry) Prewarm(ctx context.Context) error {
	for _, id := range r.allowed {
		if _, err := r.Get(ctx, id); err != nil {
			return fmt.Errorf("%w: prewarm %s: %v", domain.ErrConfiguration, id, err)
		}
	}
	return nil
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for id, m := range r.models {
		if err := m.Close(); err != nil {
			zlog.Logger.Error().Err(err).Str("model_id", id).Msg("failed to close model")
			lastErr = err
		}
		delete(r.models, id)
	}
	return lastErr
}
