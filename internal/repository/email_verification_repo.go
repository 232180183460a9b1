package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mnesleha/Shopwise/internal/models"
)

type EmailVerificationRepo interface {
	Create(ctx context.Context, t *models.EmailVerificationToken) error
	GetValidByHash(ctx context.Context, tokenHash string, now time.Time) (*models.EmailVerificationToken, error)
	Consume(ctx context.Context, id string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type emailVerificationRepo struct{ db *gorm.DB }

func NewEmailVerificationRepo(db *gorm.DB) EmailVerificationRepo {
	return &emailVerificationRepo{db: db}
}

func (r *emailVerificationRepo) Create(ctx context.Context, t *models.EmailVerificationToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *emailVerificationRepo) GetValidByHash(ctx context.Context, tokenHash string, now time.Time) (*models.EmailVerificationToken, error) {
	var t models.EmailVerificationToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND consumed = false AND expires_at > ?", tokenHash, now).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Consume помечает токен использованным; повторный вызов вернёт false.
func (r *emailVerificationRepo) Consume(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EmailVerificationToken{}).
		Where("id = ? AND consumed = false", id).
		Update("consumed", true)
	return res.RowsAffected > 0, res.Error
}

func (r *emailVerificationRepo) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Delete(&models.EmailVerificationToken{})
	return res.RowsAffected, res.Error
}
