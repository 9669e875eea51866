package scheduler

import (
	"context"
	"fmt"

	"github.com/konkolorado/jellbrid/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron            *cron.Cron
	cleanupCtrl     *controllers.CleanupController
	cleanupInterval int
	logger          *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(cleanupCtrl *controllers.CleanupController, cleanupIntervalMinutes int, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		cleanupCtrl:     cleanupCtrl,
		cleanupInterval: cleanupIntervalMinutes,
		logger:          logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Reconcile the active download ledger against real-debrid
	spec := fmt.Sprintf("*/%d * * * *", s.cleanupInterval)
	_, err := s.cron.AddFunc(spec, func() {
		s.runCleanup()
	})
	if err != nil {
		return fmt.Errorf("failed to add cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Run an initial sweep immediately
	go s.runCleanup()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runCleanup() {
	s.logger.Debug("Running cleanup sweep")
	if err := s.cleanupCtrl.CleanupFinished(context.Background()); err != nil {
		s.logger.WithError(err).Error("Cleanup sweep failed")
	}
}
