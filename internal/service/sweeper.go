package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/repository"
)

// SweepConfig holds configuration for the sweep scheduler.
type SweepConfig struct {
	// Interval is how often expired entries are swept. Default: 1 hour
	Interval time.Duration

	// InitialDelay postpones the first sweep after Start.
	InitialDelay time.Duration
}

// SweepTarget is one cache swept by the scheduler.
type SweepTarget struct {
	Name    string
	Sweeper repository.Sweeper
}

// SweepScheduler periodically deletes expired entries from every cache.
type SweepScheduler struct {
	targets   []SweepTarget
	config    SweepConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
	log       *zap.Logger
}

func NewSweepScheduler(targets []SweepTarget, config SweepConfig, log *zap.Logger) *SweepScheduler {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &SweepScheduler{
		targets: targets,
		config:  config,
		stopCh:  make(chan struct{}),
		log:     log.Named("sweeper"),
	}
}

// Start begins the sweep loop. Calling it twice is a no-op.
func (s *SweepScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	s.log.Info("sweep scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("initial_delay", s.config.InitialDelay),
		zap.Int("targets", len(s.targets)),
	)

	go func() {
		select {
		case <-time.After(s.config.InitialDelay):
			s.runSweep()
		case <-s.stopCh:
		}
	}()

	go s.run()
}

func (s *SweepScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runSweep()
		case <-s.stopCh:
			s.log.Info("sweep scheduler stopped")
			return
		}
	}
}

func (s *SweepScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.RunNow(ctx); err != nil {
		s.log.Error("sweep failed", zap.Error(err))
	}
}

// Stop stops the scheduler.
func (s *SweepScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow sweeps every target immediately and returns the number of deleted
// entries per target. A failing target does not stop the others; the first
// error is returned.
func (s *SweepScheduler) RunNow(ctx context.Context) (map[string]int64, error) {
	deleted := make(map[string]int64, len(s.targets))
	var firstErr error
	var total int64

	for _, t := range s.targets {
		n, err := t.Sweeper.SweepExpired(ctx)
		if err != nil {
			s.log.Error("failed to sweep cache", zap.String("target", t.Name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted[t.Name] = n
		total += n
	}

	if total > 0 {
		s.log.Info("swept expired entries", zap.Int64("deleted", total))
	} else {
		s.log.Debug("no expired entries")
	}
	return deleted, firstErr
}
