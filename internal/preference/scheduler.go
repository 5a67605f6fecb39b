package preference

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// trainRunner lets tests substitute the trainer.
type trainRunner interface {
	Train(ctx context.Context) error
}

// Scheduler runs the trainer on a fixed interval in the background. At most
// one recurring job is active; Start is idempotent. Stop prevents further
// runs but lets an in-flight training cycle finish, since killing a run
// mid-write is how artifacts get corrupted.
type Scheduler struct {
	trainer  trainRunner
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

func NewScheduler(trainer trainRunner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		trainer:  trainer,
		interval: interval,
		logger:   logger,
	}
}

// Start registers the recurring job. Calling Start while a job is active is
// a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.run(s.stop, s.stopped)
	s.logger.Info("training scheduler started", "interval", s.interval)
}

// Stop cancels the recurring job and returns without waiting for an
// in-flight training run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
	s.stopped = nil
	s.logger.Info("training scheduler stopped")
}

func (s *Scheduler) run(stop, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Detached context: shutdown must not abort a run mid-write.
			err := s.trainer.Train(context.Background())
			switch {
			case err == nil:
			case errors.Is(err, ErrInsufficientData):
				s.logger.Info("training skipped", "reason", err)
			default:
				s.logger.Error("training cycle failed", "error", err)
			}
		}
	}
}
