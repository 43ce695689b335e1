package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/meetsync/meetsync-api/pkg/jobs"
)

const (
	jobPurgeRefreshTokens = "purge_refresh_tokens"
	jobCancelStalePending = "cancel_stale_pending"
)

type refreshTokenPurger interface {
	PurgeExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

type stalePendingCanceller interface {
	CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceConfig drives the periodic sweep schedule.
type MaintenanceConfig struct {
	Schedule      string
	PendingMaxAge time.Duration
	CancelStale   bool
	WorkerRetries int
}

// MaintenanceService runs periodic cleanup sweeps. A cron scheduler
// enqueues sweep jobs onto a retrying worker queue so a transient
// database error does not silently skip a cycle.
type MaintenanceService struct {
	tokens   refreshTokenPurger
	meetings stalePendingCanceller
	logger   *zap.Logger
	config   MaintenanceConfig

	cron  *cron.Cron
	queue *jobs.Queue
}

func NewMaintenanceService(tokens refreshTokenPurger, meetings stalePendingCanceller, logger *zap.Logger, config MaintenanceConfig) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Schedule == "" {
		config.Schedule = "@hourly"
	}
	if config.PendingMaxAge <= 0 {
		config.PendingMaxAge = 72 * time.Hour
	}

	s := &MaintenanceService{
		tokens:   tokens,
		meetings: meetings,
		logger:   logger,
		config:   config,
	}
	s.queue = jobs.NewQueue("maintenance", s.handleJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: config.WorkerRetries,
		RetryDelay: 30 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the worker queue and the cron schedule.
func (s *MaintenanceService) Start(ctx context.Context) error {
	s.queue.Start(ctx)

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.config.Schedule, s.enqueueSweeps); err != nil {
		s.queue.Stop()
		return fmt.Errorf("schedule maintenance sweeps: %w", err)
	}
	s.cron.Start()
	s.logger.Info("maintenance sweeper started", zap.String("schedule", s.config.Schedule))
	return nil
}

// Stop halts the schedule and drains the worker queue.
func (s *MaintenanceService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.queue.Stop()
}

func (s *MaintenanceService) enqueueSweeps() {
	s.enqueue(jobPurgeRefreshTokens)
	if s.config.CancelStale {
		s.enqueue(jobCancelStalePending)
	}
}

func (s *MaintenanceService) enqueue(jobType string) {
	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobType}); err != nil {
		s.logger.Warn("failed to enqueue maintenance job", zap.String("type", jobType), zap.Error(err))
	}
}

func (s *MaintenanceService) handleJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobPurgeRefreshTokens:
		purged, err := s.tokens.PurgeExpiredRefreshTokens(ctx, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("purge refresh tokens: %w", err)
		}
		if purged > 0 {
			s.logger.Info("purged expired refresh tokens", zap.Int64("count", purged))
		}
		return nil
	case jobCancelStalePending:
		cutoff := time.Now().UTC().Add(-s.config.PendingMaxAge)
		cancelled, err := s.meetings.CancelStalePending(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("cancel stale pending meetings: %w", err)
		}
		if cancelled > 0 {
			s.logger.Info("cancelled stale pending meetings", zap.Int64("count", cancelled))
		}
		return nil
	default:
		s.logger.Warn("unknown maintenance job", zap.String("type", job.Type))
		return nil
	}
}
