package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mnesleha/Shopwise/internal/models"
)

type CartRepo interface {
	Create(ctx context.Context, c *models.Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.Cart, error)
	GetActiveByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetActiveByTokenHashForUpdate(ctx context.Context, tokenHash string) (*models.Cart, error)

	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	GetItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int64) (bool, error)
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error)
	MoveItem(ctx context.Context, itemID, destCartID uuid.UUID) error

	// Adopt передаёт анонимную корзину пользователю и гасит её токен.
	Adopt(ctx context.Context, cartID, userID uuid.UUID) (bool, error)
	// MarkMerged закрывает анонимную корзину после слияния; токен
	// становится неразрешимым.
	MarkMerged(ctx context.Context, cartID, intoCartID uuid.UUID, at time.Time) (bool, error)
	// ConvertIfActive — условный переход ACTIVE -> CONVERTED; false
	// означает, что другой сабмит успел раньше.
	ConvertIfActive(ctx context.Context, cartID uuid.UUID) (bool, error)

	WithTx(ctx context.Context, fn func(txCarts CartRepo, txProducts ProductRepo) error) error
}

type cartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) CartRepo { return &cartRepo{db: db} }

func (r *cartRepo) Create(ctx context.Context, c *models.Cart) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cartRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	err := r.db.WithContext(ctx).Preload("Items").First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ? AND status = ?", userID, models.CartStatusActive).
		Order("created_at DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.Cart, error) {
	var c models.Cart
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id IS NULL AND status = ? AND anonymous_token_hash = ?", models.CartStatusActive, tokenHash).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) GetActiveByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, models.CartStatusActive).
		Order("created_at DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) GetActiveByTokenHashForUpdate(ctx context.Context, tokenHash string) (*models.Cart, error) {
	var c models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id IS NULL AND status = ? AND anonymous_token_hash = ?", models.CartStatusActive, tokenHash).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *cartRepo) GetItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepo) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepo) UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", quantity)
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepo) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepo) MoveItem(ctx context.Context, itemID, destCartID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("cart_id", destCartID).Error
}

func (r *cartRepo) Adopt(ctx context.Context, cartID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND status = ? AND user_id IS NULL", cartID, models.CartStatusActive).
		Updates(map[string]any{
			"user_id":              userID,
			"anonymous_token_hash": nil,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepo) MarkMerged(ctx context.Context, cartID, intoCartID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, models.CartStatusActive).
		Updates(map[string]any{
			"status":               models.CartStatusMerged,
			"anonymous_token_hash": nil,
			"merged_into_cart_id":  intoCartID,
			"merged_at":            at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepo) ConvertIfActive(ctx context.Context, cartID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, models.CartStatusActive).
		Update("status", models.CartStatusConverted)
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepo) WithTx(ctx context.Context, fn func(txCarts CartRepo, txProducts ProductRepo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&cartRepo{db: tx}, &productRepo{db: tx})
	})
}
