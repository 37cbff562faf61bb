package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/models"
)

// FineProcessor is the job the scheduler runs. *services.FineService satisfies it.
type FineProcessor interface {
	ProcessAutomaticFines(ctx context.Context) (*models.ProcessFinesResult, error)
}

// Scheduler runs automatic fine processing on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	fines   FineProcessor
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// New registers the fine job with a six-field (seconds first) UTC spec.
func New(spec string, fines FineProcessor, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron:    c,
		fines:   fines,
		logger:  logger,
		timeout: 10 * time.Minute,
	}

	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid fine schedule %q: %w", spec, err)
	}

	logger.Info("Automatic fine job registered", zap.String("schedule", spec))
	return s, nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler")
	s.cron.Start()
}

// Stop waits for a running job to finish
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping cron scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron scheduler stopped")
}

// RunOnce processes automatic fines immediately. Overlapping runs are
// skipped and a panic in the job is logged instead of killing the process.
func (s *Scheduler) RunOnce() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Automatic fine run already in progress, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Automatic fine run panicked", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.fines.ProcessAutomaticFines(ctx)
	if err != nil {
		s.logger.Error("Automatic fine run failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}

	s.logger.Info("Automatic fine run finished",
		zap.Int("processed", result.Processed),
		zap.Duration("duration", time.Since(start)),
	)
}

// Entries reports how many jobs are registered
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
