// internal/polling/scheduler.go
package polling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action is one polling tick. The context is canceled once the schedule that
// produced the tick has been stopped or replaced.
type Action func(ctx context.Context)

// Scheduler owns at most one repeating schedule. Starting a new schedule
// cancels the previous one, so the last caller wins.
type Scheduler struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	id     uuid.UUID
	logger *zap.Logger
}

// NewScheduler creates an idle scheduler
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger.With(zap.String("component", "polling")),
	}
}

// Start runs action once after initialDelay and then every interval on its own
// goroutine, replacing any active schedule. It never blocks on a tick.
func (s *Scheduler) Start(initialDelay, interval time.Duration, action Action) (uuid.UUID, error) {
	if interval <= 0 {
		return uuid.Nil, errors.New("polling: interval must be > 0")
	}
	if action == nil {
		return uuid.Nil, errors.New("polling: action required")
	}
	if initialDelay < 0 {
		initialDelay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.id = uuid.New()

	logger := s.logger.With(zap.String("schedule_id", s.id.String()))
	logger.Info("Polling started",
		zap.Duration("initial_delay", initialDelay),
		zap.Duration("interval", interval),
	)

	go run(ctx, initialDelay, interval, action, logger)
	return s.id, nil
}

// Stop cancels the active schedule. A tick already in flight completes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.logger.Info("Polling stopped", zap.String("schedule_id", s.id.String()))
	s.id = uuid.Nil
}

// Active reports whether a schedule is running
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// ID returns the active schedule id or uuid.Nil
func (s *Scheduler) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func run(ctx context.Context, initialDelay, interval time.Duration, action Action, logger *zap.Logger) {
	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	tick(ctx, action, logger)

	// A ticker drops ticks while the receiver is busy, so slow ticks never overlap or pile up.
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx, action, logger)
		}
	}
}

func tick(ctx context.Context, action Action, logger *zap.Logger) {
	if ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Polling tick panicked",
				zap.Any("panic", r),
				zap.Stack("stacktrace"),
			)
		}
	}()
	action(ctx)
}
