package services

import (
	"context"
	"log"
	"time"

	"makerhub-api/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

const (
	reconcileSpec  = "@every 5m"
	cleanupSpec    = "30 3 * * *"
	reconcileBatch = 50
	jobTimeout     = 2 * time.Minute
)

// CronService runs the background jobs: payment reconciliation and
// housekeeping of codes and sessions
type CronService struct {
	cron             *cron.Cron
	payments         *PaymentService
	codes            *VerificationService
	refreshTokenRepo repositories.RefreshTokenRepository
}

func NewCronService(payments *PaymentService, codes *VerificationService, refreshTokenRepo repositories.RefreshTokenRepository) *CronService {
	return &CronService{
		cron:             cron.New(),
		payments:         payments,
		codes:            codes,
		refreshTokenRepo: refreshTokenRepo,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(reconcileSpec, s.reconcilePayments); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(cleanupSpec, s.cleanup); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("🚀 Cron scheduler started")
	return nil
}

// Stop waits for running jobs to finish or ctx to expire
func (s *CronService) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Println("🛑 Cron scheduler stopped")
	case <-ctx.Done():
		log.Println("⚠️ Cron scheduler stop timed out")
	}
}

func (s *CronService) reconcilePayments() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	settled, err := s.payments.ReconcilePending(ctx, reconcileBatch)
	if err != nil {
		log.Printf("❌ Payment reconciliation failed: %v", err)
		return
	}
	if settled > 0 {
		log.Printf("✅ Reconciled %d payments", settled)
	}
}

func (s *CronService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if n, err := s.codes.PurgeStale(ctx); err != nil {
		log.Printf("❌ Verification code cleanup failed: %v", err)
	} else {
		log.Printf("✅ Removed %d stale verification codes", n)
	}

	if n, err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("❌ Refresh token cleanup failed: %v", err)
	} else {
		log.Printf("✅ Removed %d expired refresh tokens", n)
	}
}
