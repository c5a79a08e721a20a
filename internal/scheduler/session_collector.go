package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
)

// DefaultOrderingIdle is how long an untouched ordering session survives.
const DefaultOrderingIdle = 6 * time.Hour

// SessionPruner drops session index entries whose session has expired.
type SessionPruner interface {
	PruneSessions(ctx context.Context) (int, error)
}

// OrderingSweeper forgets ordering sessions idle for longer than maxIdle.
type OrderingSweeper interface {
	Sweep(maxIdle time.Duration) int
}

// SessionCollector periodically cleans up after expired sign-in sessions
// and abandoned ordering sessions.
type SessionCollector struct {
	sessions SessionPruner
	ordering OrderingSweeper
	logger   logger.Logger
	interval time.Duration
	idle     time.Duration
	stopCh   chan struct{}
}

func NewSessionCollector(
	sessions SessionPruner,
	ordering OrderingSweeper,
	log logger.Logger,
	interval time.Duration,
	idle time.Duration,
) *SessionCollector {
	if idle == 0 {
		idle = DefaultOrderingIdle
	}

	return &SessionCollector{
		sessions: sessions,
		ordering: ordering,
		logger:   log,
		interval: interval,
		idle:     idle,
		stopCh:   make(chan struct{}),
	}
}

// Start collects once, then on every tick until Stop or ctx is done.
func (c *SessionCollector) Start(ctx context.Context) error {
	if err := c.Collect(ctx); err != nil {
		c.logger.Warn("initial session collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.Collect(ctx); err != nil {
					c.logger.Error("session collection failed",
						logger.Error(err))
				}
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the collector
func (c *SessionCollector) Stop() {
	close(c.stopCh)
}

// Collect runs one pass. Ordering sweeps happen even when pruning fails.
func (c *SessionCollector) Collect(ctx context.Context) error {
	swept := 0
	if c.ordering != nil {
		swept = c.ordering.Sweep(c.idle)
	}

	pruned, err := c.sessions.PruneSessions(ctx)
	if err != nil {
		return err
	}

	if pruned+swept > 0 {
		c.logger.Info("session collection completed",
			logger.Int("sessions_pruned", pruned),
			logger.Int("orderings_dropped", swept))
	} else {
		c.logger.Debug("no sessions to collect")
	}
	return nil
}
