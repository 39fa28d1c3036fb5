package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweep is the unit of work the sweeper runs. It returns how many items
// the pass touched.
type Sweep func(ctx context.Context) (int, error)

// SweeperConfig holds configuration for the periodic sweeper
type SweeperConfig struct {
	// Interval between sweep passes
	Interval time.Duration
}

// DefaultSweeperConfig returns the default sweeper configuration
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval: 15 * time.Minute,
	}
}

// Sweeper runs a sweep on a fixed interval until stopped. A failed pass is
// logged and the loop keeps going; the next tick gets a fresh attempt.
type Sweeper struct {
	config SweeperConfig
	sweep  Sweep
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSweeper creates a new Sweeper
func NewSweeper(config SweeperConfig, sweep Sweep, logger *zap.Logger) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultSweeperConfig().Interval
	}
	return &Sweeper{
		config: config,
		sweep:  sweep,
		logger: logger,
	}
}

// Start starts the sweep loop. Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sweeper started", zap.Duration("interval", s.config.Interval))
	return nil
}

// Stop stops the sweep loop, waiting for an in-flight pass to finish
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	start := time.Now()
	touched, err := s.sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Sweep pass failed", zap.Error(err))
		return
	}
	s.logger.Debug("Sweep pass complete",
		zap.Int("touched", touched),
		zap.Duration("elapsed", time.Since(start)),
	)
}
