// Package scheduler runs periodic maintenance jobs for the insight service.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Oliverpt-1/Thymos/internal/metrics"
	"github.com/Oliverpt-1/Thymos/internal/repository"
)

const sweepTimeout = 5 * time.Minute

// RetentionScheduler prunes old insights on a cron schedule. Insights are
// append-only and every generation writes a fresh batch, so stored rows grow
// without bound unless swept.
type RetentionScheduler struct {
	cron          *cron.Cron
	insights      repository.InsightRepository
	retentionDays int
	logger        *logrus.Logger
	mu            sync.Mutex
	isRunning     bool
}

// NewRetentionScheduler creates a scheduler pruning insights older than
// retentionDays
func NewRetentionScheduler(insights repository.InsightRepository, retentionDays int, logger *logrus.Logger) *RetentionScheduler {
	return &RetentionScheduler{
		cron:          cron.New(cron.WithLocation(time.UTC)),
		insights:      insights,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Schedule registers the sweep job. Must be called before Start.
func (s *RetentionScheduler) Schedule(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	_, err := s.cron.AddFunc(cronExpression, s.sweep)
	if err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}
	return nil
}

// Start begins executing scheduled sweeps in the background
func (s *RetentionScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("retention_days", s.retentionDays).Info("Insight retention scheduler started")
}

// Stop halts scheduling and waits for a running sweep to finish
func (s *RetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Insight retention scheduler stopped")
}

func (s *RetentionScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)

	pruned, err := s.insights.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Insight retention sweep failed")
		return
	}

	metrics.InsightsPrunedTotal.Add(float64(pruned))
	s.logger.WithFields(logrus.Fields{
		"pruned": pruned,
		"cutoff": cutoff.Format("2006-01-02"),
	}).Info("Insight retention sweep completed")
}
