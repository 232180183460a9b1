package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnesleha/Shopwise/internal/models"
)

type OrderListFilter struct {
	UserID *uuid.UUID
	Status *models.OrderStatus
	Limit  int
	Offset int
}

type CancelFields struct {
	Reason      *string
	CancelledBy models.CancelledBy
	CancelledAt time.Time
}

type OrderRepo interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, f OrderListFilter) ([]*models.Order, int64, error)
	// CancelIfCreated — compare-and-set перехода CREATED -> CANCELLED.
	// false значит, что статус уже ушёл из CREATED другим актором.
	CancelIfCreated(ctx context.Context, id uuid.UUID, f CancelFields) (bool, error)
	SetGuestAccessToken(ctx context.Context, id uuid.UUID, tokenHash string, at time.Time) error
	// ClaimAllForEmail приклеивает неclaimed гостевые заказы c совпадающим
	// нормализованным email к пользователю. Возвращает число заказов.
	ClaimAllForEmail(ctx context.Context, userID uuid.UUID, normalizedEmail string, at time.Time) (int64, error)

	WithTx(ctx context.Context, fn func(txOrders OrderRepo, txItems OrderItemRepo, txCarts CartRepo, txProducts ProductRepo) error) error
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) OrderRepo { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var ord models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&ord, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

func (r *orderRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var ord models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		First(&ord, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

func (r *orderRepo) List(ctx context.Context, f OrderListFilter) ([]*models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var list []*models.Order
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Preload("Items").Find(&list).Error
	return list, total, err
}

func (r *orderRepo) CancelIfCreated(ctx context.Context, id uuid.UUID, f CancelFields) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusCreated).
		Updates(map[string]any{
			"status":        models.OrderStatusCancelled,
			"cancel_reason": f.Reason,
			"cancelled_by":  f.CancelledBy,
			"cancelled_at":  f.CancelledAt,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *orderRepo) SetGuestAccessToken(ctx context.Context, id uuid.UUID, tokenHash string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND user_id IS NULL", id).
		Updates(map[string]any{
			"guest_access_token_hash":       tokenHash,
			"guest_access_token_created_at": at,
		}).Error
}

func (r *orderRepo) ClaimAllForEmail(ctx context.Context, userID uuid.UUID, normalizedEmail string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("user_id IS NULL AND is_claimed = false AND customer_email_normalized = ?", normalizedEmail).
		Updates(map[string]any{
			"user_id":    userID,
			"is_claimed": true,
			"claimed_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *orderRepo) WithTx(ctx context.Context, fn func(txOrders OrderRepo, txItems OrderItemRepo, txCarts CartRepo, txProducts ProductRepo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&orderRepo{db: tx}, &orderItemRepo{db: tx}, &cartRepo{db: tx}, &productRepo{db: tx})
	})
}
