package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// defaultSweepTimeout bounds a single pass over the dead-letter queue.
const defaultSweepTimeout = 2 * time.Minute

// DLQSweeper drops schedule and breakdown jobs that have sat in the
// dead-letter queue longer than the retention period. It sweeps once when it
// starts, so a worker that restarts often still keeps the DLQ bounded.
type DLQSweeper struct {
	purger    DLQPurger
	every     time.Duration
	retention time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// NewDLQSweeper returns a sweeper over purger. A nil purger makes every sweep
// a no-op.
func NewDLQSweeper(purger DLQPurger, every, retention time.Duration, logger *zap.Logger) *DLQSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DLQSweeper{
		purger:    purger,
		every:     every,
		retention: retention,
		timeout:   defaultSweepTimeout,
		logger:    logger,
	}
}

// Run sweeps straight away and then every interval until ctx ends, returning
// ctx's error. With a non-positive interval it sweeps once and returns nil.
// Failed sweeps are logged and retried on the next tick.
func (s *DLQSweeper) Run(ctx context.Context) error {
	s.sweepAndLog(ctx)
	if s.every <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

// Sweep makes one pass and returns how many jobs it dropped.
func (s *DLQSweeper) Sweep(ctx context.Context) (int, error) {
	if s.purger == nil || ctx.Err() != nil {
		return 0, ctx.Err()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dropped, err := s.purger.PurgeOlderThan(ctx, s.retention)
	if err != nil {
		return dropped, fmt.Errorf("failed to sweep dead-letter queue: %w", err)
	}
	return dropped, nil
}

func (s *DLQSweeper) sweepAndLog(ctx context.Context) {
	dropped, err := s.Sweep(ctx)
	switch {
	case err != nil && ctx.Err() == nil:
		s.logger.Error("dlq_sweep_failed", zap.Int("dropped", dropped), zap.Error(err))
	case dropped > 0:
		s.logger.Info("dlq_sweep_dropped_jobs",
			zap.Int("dropped", dropped),
			zap.Duration("retention", s.retention))
	}
}
