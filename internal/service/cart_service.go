package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mnesleha/Shopwise/internal/models"
	"github.com/mnesleha/Shopwise/internal/repository"
	"github.com/mnesleha/Shopwise/internal/util"
)

const cartCacheTTL = 60 * time.Second

// MergeWarningReason — машинные коды предупреждений слияния.
type MergeWarningReason string

const (
	MergeWarningStockConflict MergeWarningReason = "STOCK_CONFLICT"
	MergeWarningPriceChanged  MergeWarningReason = "PRICE_CHANGED"
)

type MergeWarning struct {
	ProductID uuid.UUID          `json:"product_id"`
	Reason    MergeWarningReason `json:"reason"`
}

// MergeReport — результат одной реконсиляции анонимной корзины.
// Performed=false значит, что сливать было нечего (токена нет, корзина
// не нашлась или была пуста) — повторный вызов с тем же токеном всегда
// попадает в эту ветку.
type MergeReport struct {
	Performed bool           `json:"performed"`
	Warnings  []MergeWarning `json:"warnings,omitempty"`
}

// CartOwner идентифицирует владельца корзины: пользователь либо
// анонимный токен (сырой; в БД хранится только хэш).
type CartOwner struct {
	UserID   *uuid.UUID
	RawToken string
}

func (o CartOwner) cacheKey() string {
	if o.UserID != nil {
		return "u:" + o.UserID.String()
	}
	return "t:" + util.Sha256Hex(o.RawToken)
}

type CartService struct {
	carts    repository.CartRepo
	products repository.ProductRepo
	cache    CartCache // может быть nil
	sfg      singleflight.Group
	now      func() time.Time
	log      *zap.Logger
}

func NewCartService(carts repository.CartRepo, products repository.ProductRepo, cache CartCache, log *zap.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		cache:    cache,
		now:      time.Now,
		log:      log,
	}
}

// GetOrCreate возвращает ACTIVE-корзину владельца. Для анонимного
// владельца без разрешимого токена создаётся новая корзина и выпускается
// новый сырой токен (второй результат); в остальных случаях он пуст.
func (s *CartService) GetOrCreate(ctx context.Context, owner CartOwner) (*models.Cart, string, error) {
	if owner.UserID != nil {
		cart, err := s.getCachedOrLoad(ctx, owner, func() (*models.Cart, error) {
			return s.carts.GetActiveByUser(ctx, *owner.UserID)
		})
		if err != nil {
			return nil, "", err
		}
		if cart != nil {
			return cart, "", nil
		}
		cart = &models.Cart{UserID: owner.UserID, Status: models.CartStatusActive}
		if err := s.carts.Create(ctx, cart); err != nil {
			// Частичный уникальный индекс мог сработать под гонкой —
			// перечитываем, побеждает уже существующая корзина.
			if existing, gerr := s.carts.GetActiveByUser(ctx, *owner.UserID); gerr == nil && existing != nil {
				return existing, "", nil
			}
			return nil, "", fmt.Errorf("failed to create cart: %w", err)
		}
		return cart, "", nil
	}

	if owner.RawToken != "" {
		cart, err := s.getCachedOrLoad(ctx, owner, func() (*models.Cart, error) {
			return s.carts.GetActiveByTokenHash(ctx, util.Sha256Hex(owner.RawToken))
		})
		if err != nil {
			return nil, "", err
		}
		if cart != nil {
			return cart, "", nil
		}
	}

	// Новая анонимная сессия: корзина + свежий токен.
	raw, err := util.RandomOpaque(32)
	if err != nil {
		return nil, "", err
	}
	hash := util.Sha256Hex(raw)
	cart := &models.Cart{AnonymousTokenHash: &hash, Status: models.CartStatusActive}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, "", fmt.Errorf("failed to create anonymous cart: %w", err)
	}
	return cart, raw, nil
}

// AddItem добавляет товар в корзину владельца; цена фиксируется на момент
// добавления. Повторное добавление того же товара суммирует количество.
func (s *CartService) AddItem(ctx context.Context, owner CartOwner, productID uuid.UUID, quantity int64) (*models.Cart, string, error) {
	if quantity < 1 {
		return nil, "", NewValidationError(map[string]string{"quantity": "Quantity must be greater than zero."})
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, "", err
	}
	if product == nil || !product.IsActive {
		return nil, "", ErrProductNotFound
	}

	cart, rawToken, err := s.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, "", err
	}

	existing, err := s.carts.GetItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		if _, err := s.carts.UpdateItemQuantity(ctx, cart.ID, productID, existing.Quantity+quantity); err != nil {
			return nil, "", err
		}
	} else {
		item := &models.CartItem{
			CartID:         cart.ID,
			ProductID:      productID,
			Quantity:       quantity,
			UnitPriceCents: product.PriceCents,
		}
		if err := s.carts.CreateItem(ctx, item); err != nil {
			return nil, "", err
		}
	}

	s.invalidate(ctx, owner)

	fresh, err := s.carts.GetByID(ctx, cart.ID)
	if err != nil {
		return nil, "", err
	}
	return fresh, rawToken, nil
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, owner CartOwner, productID uuid.UUID, quantity int64) (*models.Cart, error) {
	if quantity < 1 {
		return nil, NewValidationError(map[string]string{"quantity": "Quantity must be greater than zero."})
	}

	cart, err := s.resolve(ctx, owner)
	if err != nil {
		return nil, err
	}

	ok, err := s.carts.UpdateItemQuantity(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	s.invalidate(ctx, owner)
	return s.carts.GetByID(ctx, cart.ID)
}

func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.resolve(ctx, owner)
	if err != nil {
		return nil, err
	}

	ok, err := s.carts.DeleteItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	s.invalidate(ctx, owner)
	return s.carts.GetByID(ctx, cart.ID)
}

// Reconcile — слияние анонимной корзины в корзину аккаунта при логине,
// регистрации или подтверждении почты.
//
// Политика конфликтов (документированное решение): слияние построчное и
// частичное. Строка, чьё суммарное количество превышает остаток товара,
// помечается предупреждением STOCK_CONFLICT и остаётся на анонимной
// корзине; остальные строки сливаются. Анонимная корзина в любом случае
// закрывается (MERGED) и её токен гасится, так что токен разрешим ровно
// для одной реконсиляции.
func (s *CartService) Reconcile(ctx context.Context, userID uuid.UUID, rawCartToken string) (*MergeReport, error) {
	report := &MergeReport{}
	if rawCartToken == "" {
		return report, nil
	}

	tokenHash := util.Sha256Hex(rawCartToken)

	err := s.carts.WithTx(ctx, func(txCarts repository.CartRepo, txProducts repository.ProductRepo) error {
		anon, err := txCarts.GetActiveByTokenHashForUpdate(ctx, tokenHash)
		if err != nil {
			return err
		}
		if anon == nil {
			return nil // токен уже неразрешим — сливать нечего
		}

		anonItems, err := txCarts.ListItems(ctx, anon.ID)
		if err != nil {
			return err
		}

		userCart, err := txCarts.GetActiveByUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if userCart == nil {
			// У аккаунта нет активной корзины — анонимная усыновляется
			// целиком, со снимками цен как есть.
			if _, err := txCarts.Adopt(ctx, anon.ID, userID); err != nil {
				return err
			}
			report.Performed = len(anonItems) > 0
			return nil
		}

		userItems, err := txCarts.ListItems(ctx, userCart.ID)
		if err != nil {
			return err
		}
		byProduct := make(map[uuid.UUID]models.CartItem, len(userItems))
		for _, it := range userItems {
			byProduct[it.ProductID] = it
		}

		for _, anonItem := range anonItems {
			product, err := txProducts.GetByIDForUpdate(ctx, anonItem.ProductID)
			if err != nil {
				return err
			}
			if product == nil || !product.IsActive {
				report.Warnings = append(report.Warnings, MergeWarning{
					ProductID: anonItem.ProductID,
					Reason:    MergeWarningStockConflict,
				})
				continue
			}

			if userItem, ok := byProduct[anonItem.ProductID]; ok {
				merged := userItem.Quantity + anonItem.Quantity
				if merged > product.StockQuantity {
					report.Warnings = append(report.Warnings, MergeWarning{
						ProductID: anonItem.ProductID,
						Reason:    MergeWarningStockConflict,
					})
					continue
				}
				if _, err := txCarts.UpdateItemQuantity(ctx, userCart.ID, anonItem.ProductID, merged); err != nil {
					return err
				}
				if _, err := txCarts.DeleteItem(ctx, anon.ID, anonItem.ProductID); err != nil {
					return err
				}
				if userItem.UnitPriceCents != product.PriceCents {
					report.Warnings = append(report.Warnings, MergeWarning{
						ProductID: anonItem.ProductID,
						Reason:    MergeWarningPriceChanged,
					})
				}
				continue
			}

			if anonItem.Quantity > product.StockQuantity {
				report.Warnings = append(report.Warnings, MergeWarning{
					ProductID: anonItem.ProductID,
					Reason:    MergeWarningStockConflict,
				})
				continue
			}
			if err := txCarts.MoveItem(ctx, anonItem.ID, userCart.ID); err != nil {
				return err
			}
			if anonItem.UnitPriceCents != product.PriceCents {
				report.Warnings = append(report.Warnings, MergeWarning{
					ProductID: anonItem.ProductID,
					Reason:    MergeWarningPriceChanged,
				})
			}
		}

		if _, err := txCarts.MarkMerged(ctx, anon.ID, userCart.ID, s.now()); err != nil {
			return err
		}
		report.Performed = len(anonItems) > 0
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cart reconcile failed: %w", err)
	}

	s.invalidate(ctx, CartOwner{RawToken: rawCartToken})
	s.invalidate(ctx, CartOwner{UserID: &userID})

	return report, nil
}

// resolve находит существующую ACTIVE-корзину владельца, не создавая новой.
func (s *CartService) resolve(ctx context.Context, owner CartOwner) (*models.Cart, error) {
	if owner.UserID != nil {
		cart, err := s.carts.GetActiveByUser(ctx, *owner.UserID)
		if err != nil {
			return nil, err
		}
		if cart == nil {
			return nil, ErrCartNotActive
		}
		return cart, nil
	}
	if owner.RawToken == "" {
		return nil, ErrCartNotActive
	}
	cart, err := s.carts.GetActiveByTokenHash(ctx, util.Sha256Hex(owner.RawToken))
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotActive
	}
	return cart, nil
}

// getCachedOrLoad — cache-first чтение корзины; singleflight схлопывает
// конкурентные промахи по одному ключу.
func (s *CartService) getCachedOrLoad(ctx context.Context, owner CartOwner, load func() (*models.Cart, error)) (*models.Cart, error) {
	if s.cache == nil {
		return load()
	}

	key := owner.cacheKey()
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		if b, cerr := s.cache.GetCart(ctx, key); cerr == nil {
			var cart models.Cart
			if jerr := json.Unmarshal(b, &cart); jerr == nil {
				return &cart, nil
			}
		}

		cart, lerr := load()
		if lerr != nil {
			return nil, lerr
		}
		if cart != nil {
			if b, jerr := json.Marshal(cart); jerr == nil {
				go func() {
					if serr := s.cache.SetCart(context.Background(), key, b, cartCacheTTL); serr != nil {
						s.log.Warn("cart cache set failed", zap.Error(serr))
					}
				}()
			}
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	cart, _ := v.(*models.Cart)
	return cart, nil
}

func (s *CartService) invalidate(ctx context.Context, owner CartOwner) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCart(ctx, owner.cacheKey()); err != nil {
		s.log.Warn("cart cache invalidate failed", zap.Error(err))
	}
}
