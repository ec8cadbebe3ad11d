package cleanup

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/wb-go/wbf/zlog"
)

// Remover deletes a stored file. Deleting a missing file must not be an error.
type Remover interface {
	Delete(ctx context.Context, path string) error
}

// Scheduler deletes files after a delay. Pending removals live in an expiring
// cache; a ticker sweeps expired entries every resolution and the eviction
// callback performs the delete. The cache is created without its own janitor
// so that Stop can end the sweeping goroutine.
type Scheduler struct {
	remover Remover
	pending *cache.Cache

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewScheduler(remover Remover, resolution time.Duration) *Scheduler {
	if resolution <= 0 {
		resolution = time.Second
	}
	s := &Scheduler{
		remover: remover,
		pending: cache.New(cache.NoExpiration, 0),
		done:    make(chan struct{}),
	}
	s.pending.OnEvicted(s.remove)

	s.wg.Add(1)
	go s.sweep(resolution)
	return s
}

func (s *Scheduler) sweep(resolution time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.pending.DeleteExpired()
		}
	}
}

// Schedule arranges for path to be removed once delay has elapsed. It never
// blocks; scheduling the same path again resets its deadline.
func (s *Scheduler) Schedule(path string, delay time.Duration) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if delay <= 0 {
		delay = time.Nanosecond
	}
	s.pending.Set(path, time.Now().Add(delay), delay)
	zlog.Logger.Debug().Str("path", path).Dur("delay", delay).Msg("removal scheduled")
}

func (s *Scheduler) Pending() int {
	return s.pending.ItemCount()
}

// Stop ends the sweeper and drops every pending removal. Dropped files stay
// on disk. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	n := s.pending.ItemCount()
	s.pending.OnEvicted(nil)
	s.pending.Flush()
	if n > 0 {
		zlog.Logger.Info().Int("dropped", n).Msg("pending removals dropped on shutdown")
	}
}

func (s *Scheduler) remove(path string, _ any) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return
	}

	if err := s.remover.Delete(context.Background(), path); err != nil {
		zlog.Logger.Warn().Err(err).Str("path", path).Msg("deferred removal failed")
		return
	}
	zlog.Logger.Debug().Str("path", path).Msg("deferred removal done")
}
