package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	cleanup  *CleanupService
	interval time.Duration
	log      *zap.Logger
	stopCh   chan struct{}
}

func NewScheduler(cleanup *CleanupService, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		cleanup:  cleanup,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start запускает фоновые задачи очистки
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting cleanup scheduler", zap.Duration("interval", s.interval))

	go s.runTokensCleanup(ctx)
	go s.runCartsCleanup(ctx)
}

func (s *Scheduler) Stop() {
	s.log.Info("stopping cleanup scheduler")
	close(s.stopCh)
}

func (s *Scheduler) runTokensCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Выполняем сразу при старте
	if err := s.cleanup.CleanupExpiredTokens(ctx); err != nil {
		s.log.Error("initial expired tokens cleanup failed", zap.Error(err))
	}

	for {
		select {
		case <-ticker.C:
			if err := s.cleanup.CleanupExpiredTokens(ctx); err != nil {
				s.log.Error("expired tokens cleanup failed", zap.Error(err))
			}
			if err := s.cleanup.CleanupConsumedTokens(ctx); err != nil {
				s.log.Error("consumed tokens cleanup failed", zap.Error(err))
			}
		case <-s.stopCh:
			s.log.Info("tokens cleanup stopped")
			return
		case <-ctx.Done():
			s.log.Info("tokens cleanup cancelled")
			return
		}
	}
}

func (s *Scheduler) runCartsCleanup(ctx context.Context) {
	// корзины чистим реже токенов
	ticker := time.NewTicker(6 * s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.cleanup.CleanupAnonymousCarts(ctx); err != nil {
				s.log.Error("anonymous carts cleanup failed", zap.Error(err))
			}
		case <-s.stopCh:
			s.log.Info("carts cleanup stopped")
			return
		case <-ctx.Done():
			s.log.Info("carts cleanup cancelled")
			return
		}
	}
}

// RunOnceNow выполняет полную очистку немедленно
func (s *Scheduler) RunOnceNow(ctx context.Context) error {
	return s.cleanup.RunFullCleanup(ctx)
}
