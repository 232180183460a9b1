package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CleanupService struct {
	db             *gorm.DB
	anonCartTTL    time.Duration
	tokenRetention time.Duration // сколько хранить использованные/отозванные токены
	log            *zap.Logger
}

func NewCleanupService(db *gorm.DB, anonCartTTL, tokenRetention time.Duration, log *zap.Logger) *CleanupService {
	if anonCartTTL <= 0 {
		anonCartTTL = 30 * 24 * time.Hour
	}
	if tokenRetention <= 0 {
		tokenRetention = 24 * time.Hour
	}
	return &CleanupService{
		db:             db,
		anonCartTTL:    anonCartTTL,
		tokenRetention: tokenRetention,
		log:            log,
	}
}

// consumedCutoff — граница, старше которой использованные токены удаляются.
func (c *CleanupService) consumedCutoff(now time.Time) time.Time {
	return now.Add(-c.tokenRetention)
}

// CleanupExpiredTokens удаляет истёкшие refresh и email verification токены
func (c *CleanupService) CleanupExpiredTokens(ctx context.Context) error {
	now := time.Now()

	result := c.db.WithContext(ctx).
		Exec("DELETE FROM refresh_tokens WHERE expires_at < ?", now)
	if result.Error != nil {
		c.log.Error("failed to cleanup expired refresh tokens", zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		c.log.Info("cleaned up expired refresh tokens", zap.Int64("count", result.RowsAffected))
	}

	result = c.db.WithContext(ctx).
		Exec("DELETE FROM email_verification_tokens WHERE expires_at < ?", now)
	if result.Error != nil {
		c.log.Error("failed to cleanup expired email verification tokens", zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		c.log.Info("cleaned up expired email verification tokens", zap.Int64("count", result.RowsAffected))
	}

	return nil
}

// CleanupConsumedTokens удаляет использованные токены старше окна хранения
func (c *CleanupService) CleanupConsumedTokens(ctx context.Context) error {
	cutoff := c.consumedCutoff(time.Now())

	result := c.db.WithContext(ctx).
		Exec("DELETE FROM email_verification_tokens WHERE consumed = true AND created_at < ?", cutoff)
	if result.Error != nil {
		c.log.Error("failed to cleanup consumed email verification tokens", zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		c.log.Info("cleaned up consumed email verification tokens", zap.Int64("count", result.RowsAffected))
	}

	result = c.db.WithContext(ctx).
		Exec("DELETE FROM refresh_tokens WHERE revoked = true AND created_at < ?", cutoff)
	if result.Error != nil {
		c.log.Error("failed to cleanup revoked refresh tokens", zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		c.log.Info("cleaned up revoked refresh tokens", zap.Int64("count", result.RowsAffected))
	}

	return nil
}

// CleanupAnonymousCarts удаляет брошенные анонимные корзины старше TTL
// вместе со строками (каскад). Закрытые корзины (MERGED/CONVERTED)
// остаются как история слияний и заказов.
func (c *CleanupService) CleanupAnonymousCarts(ctx context.Context) error {
	cutoff := time.Now().Add(-c.anonCartTTL)

	result := c.db.WithContext(ctx).Exec(
		`DELETE FROM carts
		 WHERE user_id IS NULL AND status = 'ACTIVE' AND updated_at < ?`, cutoff)
	if result.Error != nil {
		c.log.Error("failed to cleanup anonymous carts", zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		c.log.Info("cleaned up stale anonymous carts", zap.Int64("count", result.RowsAffected))
	}

	return nil
}

// RunFullCleanup выполняет все задачи очистки
func (c *CleanupService) RunFullCleanup(ctx context.Context) error {
	c.log.Info("starting full cleanup")

	if err := c.CleanupExpiredTokens(ctx); err != nil {
		return err
	}
	if err := c.CleanupConsumedTokens(ctx); err != nil {
		return err
	}
	if err := c.CleanupAnonymousCarts(ctx); err != nil {
		return err
	}

	c.log.Info("full cleanup completed")
	return nil
}
