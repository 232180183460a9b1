package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnesleha/Shopwise/internal/models"
)

type RefreshRepo interface {
	Create(ctx context.Context, t *models.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	IsActiveByHash(ctx context.Context, hash string, now time.Time) (bool, error)
	RevokeByHash(ctx context.Context, hash string) (bool, error)
	RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

type refreshRepo struct{ db *gorm.DB }

func NewRefreshRepo(db *gorm.DB) RefreshRepo { return &refreshRepo{db: db} }

func (r *refreshRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *refreshRepo) GetByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *refreshRepo) IsActiveByHash(ctx context.Context, hash string, now time.Time) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = false AND expires_at > ?", hash, now).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *refreshRepo) RevokeByHash(ctx context.Context, hash string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = false", hash).
		Update("revoked", true)
	return res.RowsAffected > 0, res.Error
}

func (r *refreshRepo) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = false", userID).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}
