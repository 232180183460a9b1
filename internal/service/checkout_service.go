package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/models"
	"github.com/mnesleha/Shopwise/internal/producer"
	"github.com/mnesleha/Shopwise/internal/repository"
	"github.com/mnesleha/Shopwise/internal/util"
)

// CheckoutInput — данные формы оформления заказа.
type CheckoutInput struct {
	Email string

	ShippingName         string
	ShippingAddressLine1 string
	ShippingAddressLine2 string
	ShippingCity         string
	ShippingPostalCode   string
	ShippingCountry      string
	ShippingPhone        string

	BillingSameAsShipping bool
	BillingName           string
	BillingAddressLine1   string
	BillingAddressLine2   string
	BillingCity           string
	BillingPostalCode     string
	BillingCountry        string
	BillingPhone          string
}

func (in *CheckoutInput) Validate() error {
	fields := map[string]string{}

	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			fields[name] = "This field is required."
		}
	}

	require("email", in.Email)
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		fields["email"] = "Enter a valid email address."
	}
	require("shipping_name", in.ShippingName)
	require("shipping_address_line1", in.ShippingAddressLine1)
	require("shipping_city", in.ShippingCity)
	require("shipping_postal_code", in.ShippingPostalCode)
	require("shipping_country", in.ShippingCountry)
	require("shipping_phone", in.ShippingPhone)

	if !in.BillingSameAsShipping {
		require("billing_name", in.BillingName)
		require("billing_address_line1", in.BillingAddressLine1)
		require("billing_city", in.BillingCity)
		require("billing_postal_code", in.BillingPostalCode)
		require("billing_country", in.BillingCountry)
		require("billing_phone", in.BillingPhone)
	}

	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// CheckoutResult — созданный заказ; для гостя — ещё и сырой капабилити-токен
// (единственный момент, когда он существует в открытом виде).
type CheckoutResult struct {
	Order         *models.Order
	GuestRawToken string
}

// CheckoutService оформляет заказы из корзин и управляет их жизненным циклом.
type CheckoutService struct {
	orders   repository.OrderRepo
	carts    repository.CartRepo
	cache    CartCache // может быть nil
	producer EmailProducer
	// секрет-префикс хэша гостевого токена: утёкшая БД не даёт доступа к заказам
	guestTokenSecret string
	now              func() time.Time
	log              *zap.Logger
}

func NewCheckoutService(
	orders repository.OrderRepo,
	carts repository.CartRepo,
	cache CartCache,
	emailProducer EmailProducer,
	guestTokenSecret string,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:           orders,
		carts:            carts,
		cache:            cache,
		producer:         emailProducer,
		guestTokenSecret: guestTokenSecret,
		now:              time.Now,
		log:              log,
	}
}

func (s *CheckoutService) guestTokenHash(raw string) string {
	return util.Sha256Hex(s.guestTokenSecret + raw)
}

// Checkout превращает ACTIVE-корзину владельца в заказ CREATED.
// Атомарно в одной транзакции: условное списание остатков, создание
// заказа со снимками цен и CAS-закрытие корзины (ACTIVE -> CONVERTED),
// поэтому двойной сабмит формы оформляет заказ ровно один раз.
func (s *CheckoutService) Checkout(ctx context.Context, owner CartOwner, in CheckoutInput) (*CheckoutResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		order    *models.Order
		rawToken string
	)

	err := s.orders.WithTx(ctx, func(txOrders repository.OrderRepo, txItems repository.OrderItemRepo, txCarts repository.CartRepo, txProducts repository.ProductRepo) error {
		var (
			cart *models.Cart
			err  error
		)
		if owner.UserID != nil {
			cart, err = txCarts.GetActiveByUserForUpdate(ctx, *owner.UserID)
		} else if owner.RawToken != "" {
			cart, err = txCarts.GetActiveByTokenHashForUpdate(ctx, util.Sha256Hex(owner.RawToken))
		}
		if err != nil {
			return err
		}
		if cart == nil {
			return ErrCartNotActive
		}

		items, err := txCarts.ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		var total int64
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			ok, err := txProducts.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientStock
			}
			line := it.Quantity * it.UnitPriceCents
			total += line
			orderItems = append(orderItems, models.OrderItem{
				ProductID:      it.ProductID,
				Quantity:       it.Quantity,
				UnitPriceCents: it.UnitPriceCents,
				LineTotalCents: line,
			})
		}

		o := &models.Order{
			UserID:        owner.UserID,
			Status:        models.OrderStatusCreated,
			CustomerEmail: in.Email,
			// нормализованный email — ключ будущего claim
			CustomerEmailNormalized: util.NormalizeEmail(in.Email),

			ShippingName:         in.ShippingName,
			ShippingAddressLine1: in.ShippingAddressLine1,
			ShippingAddressLine2: in.ShippingAddressLine2,
			ShippingCity:         in.ShippingCity,
			ShippingPostalCode:   in.ShippingPostalCode,
			ShippingCountry:      in.ShippingCountry,
			ShippingPhone:        in.ShippingPhone,

			BillingSameAsShipping: in.BillingSameAsShipping,
			BillingName:           in.BillingName,
			BillingAddressLine1:   in.BillingAddressLine1,
			BillingAddressLine2:   in.BillingAddressLine2,
			BillingCity:           in.BillingCity,
			BillingPostalCode:     in.BillingPostalCode,
			BillingCountry:        in.BillingCountry,
			BillingPhone:          in.BillingPhone,

			TotalCents: total,
		}
		if err := txOrders.Create(ctx, o); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for i := range orderItems {
			orderItems[i].OrderID = o.ID
		}
		if err := txItems.BulkCreate(ctx, orderItems); err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}

		// Проигранный CAS = параллельный сабмит уже оформил эту корзину;
		// откатываем всю транзакцию вместе со списанием остатков.
		converted, err := txCarts.ConvertIfActive(ctx, cart.ID)
		if err != nil {
			return err
		}
		if !converted {
			return ErrCartNotActive
		}

		if owner.UserID == nil {
			raw, err := util.RandomOpaque(32)
			if err != nil {
				return err
			}
			if err := txOrders.SetGuestAccessToken(ctx, o.ID, s.guestTokenHash(raw), s.now()); err != nil {
				return err
			}
			rawToken = raw
		}

		o.Items = orderItems
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOwner(ctx, owner)
	s.sendConfirmation(ctx, order, rawToken)

	return &CheckoutResult{Order: order, GuestRawToken: rawToken}, nil
}

// GetOrder — заказ пользователя; чужой или несуществующий — ErrNotFound.
func (s *CheckoutService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	o, err := s.orders.GetByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *CheckoutService) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Order, int64, error) {
	return s.orders.List(ctx, repository.OrderListFilter{
		UserID: &userID,
		Limit:  limit,
		Offset: offset,
	})
}

// GetGuestOrder — доступ к гостевому заказу по капабилити-токену.
// Любая причина отказа (нет заказа, заказ не гостевой, токен не совпал)
// отдаётся одинаково как ErrNotFound, чтобы не подсвечивать существование
// заказов перебором.
func (s *CheckoutService) GetGuestOrder(ctx context.Context, orderID uuid.UUID, rawToken string) (*models.Order, error) {
	if rawToken == "" {
		return nil, ErrMissingGuestToken
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || o.UserID != nil || o.GuestAccessTokenHash == nil {
		return nil, ErrNotFound
	}
	if !util.ConstantTimeEquals(s.guestTokenHash(rawToken), *o.GuestAccessTokenHash) {
		return nil, ErrNotFound
	}
	return o, nil
}

// CancelOrder отменяет заказ пользователя. Разрешён только переход
// CREATED -> CANCELLED; остатки возвращаются в той же транзакции.
func (s *CheckoutService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.Order, error) {
	var cancelled *models.Order

	err := s.orders.WithTx(ctx, func(txOrders repository.OrderRepo, txItems repository.OrderItemRepo, _ repository.CartRepo, txProducts repository.ProductRepo) error {
		o, err := txOrders.GetByIDForUser(ctx, orderID, userID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrNotFound
		}

		var reasonPtr *string
		if strings.TrimSpace(reason) != "" {
			reasonPtr = &reason
		}
		ok, err := txOrders.CancelIfCreated(ctx, o.ID, repository.CancelFields{
			Reason:      reasonPtr,
			CancelledBy: models.CancelledByCustomer,
			CancelledAt: s.now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOrderState
		}

		for _, it := range o.Items {
			if err := txProducts.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		cancelled, err = txOrders.GetByIDForUser(ctx, orderID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *CheckoutService) invalidateOwner(ctx context.Context, owner CartOwner) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCart(ctx, owner.cacheKey()); err != nil {
		s.log.Warn("cart cache invalidate failed", zap.Error(err))
	}
}

// sendConfirmation ставит письмо-подтверждение в очередь; сбой очереди
// заказ не отменяет.
func (s *CheckoutService) sendConfirmation(ctx context.Context, o *models.Order, guestRawToken string) {
	if s.producer == nil || o == nil {
		return
	}

	data := map[string]any{
		"order_id":    o.ID.String(),
		"total_cents": o.TotalCents,
	}
	template := "order_confirmation"
	if guestRawToken != "" {
		template = "guest_order_confirmation"
		data["guest_access_token"] = guestRawToken
	}

	msg := producer.EmailMessage{
		To:       o.CustomerEmail,
		Subject:  "Your order confirmation",
		Template: template,
		Data:     data,
	}
	if err := s.producer.SendEmail(ctx, o.ID.String(), msg); err != nil {
		s.log.Error("failed to enqueue order confirmation email", zap.Error(err))
	}
}
