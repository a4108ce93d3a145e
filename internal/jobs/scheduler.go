package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/drivehub/booking-service/internal/config"
	"github.com/drivehub/booking-service/internal/domain/ports"
	svcports "github.com/drivehub/booking-service/internal/services/ports"
	"github.com/drivehub/booking-service/pkg/observability"
)

// Scheduler runs the recurring maintenance jobs: the virtual-account expiry
// sweep and the settlement advance batch.
type Scheduler struct {
	cron     *cron.Cron
	payments svcports.PaymentService
	cfg      config.JobsConfig
	logger   ports.Logger
}

// NewScheduler creates a scheduler with jobs registered per the configured
// cron expressions
func NewScheduler(payments svcports.PaymentService, cfg config.JobsConfig, logger ports.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	s := &Scheduler{
		cron:     c,
		payments: payments,
		cfg:      cfg,
		logger:   logger,
	}

	if _, err := c.AddFunc(cfg.ExpirySchedule, s.runWithRecovery("virtual_account_expiry", s.ExpireOverdueVirtualAccounts)); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(cfg.SettlementSchedule, s.runWithRecovery("settlement_advance", s.AdvanceSettlements)); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins job scheduling in the background
func (s *Scheduler) Start() {
	s.logger.Info("job scheduler started",
		ports.String("expiry_schedule", s.cfg.ExpirySchedule),
		ports.String("settlement_schedule", s.cfg.SettlementSchedule),
	)
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("job scheduler stopped")
}

// runWithRecovery wraps job execution with panic recovery
func (s *Scheduler) runWithRecovery(jobName string, jobFunc func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("job panicked",
					ports.String("job", jobName),
					ports.Field{Key: "panic", Value: r},
				)
			}
		}()

		s.logger.Info("starting job", ports.String("job", jobName))
		jobFunc()
		s.logger.Info("job completed", ports.String("job", jobName))
	}
}

// ExpireOverdueVirtualAccounts cancels awaiting_deposit payments whose
// transfer window has passed
func (s *Scheduler) ExpireOverdueVirtualAccounts() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	expired, err := s.payments.ExpireOverdueVirtualAccounts(ctx)
	if err != nil {
		s.logger.Error("virtual account expiry sweep failed", ports.Err(err))
		return
	}
	for i := 0; i < expired; i++ {
		observability.RecordVirtualAccountExpiry()
	}
	if expired > 0 {
		s.logger.Info("expired overdue virtual accounts", ports.Int("count", expired))
	}
}

// AdvanceSettlements moves completed payments' settlement from pending to
// processing
func (s *Scheduler) AdvanceSettlements() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	advanced, err := s.payments.AdvanceSettlements(ctx)
	if err != nil {
		s.logger.Error("settlement advance batch failed", ports.Err(err))
		return
	}
	for i := 0; i < advanced; i++ {
		observability.RecordSettlementAdvance("processing")
	}
	if advanced > 0 {
		s.logger.Info("advanced settlements", ports.Int("count", advanced))
	}
}
