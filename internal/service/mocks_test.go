package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mnesleha/Shopwise/internal/models"
	"github.com/mnesleha/Shopwise/internal/producer"
	"github.com/mnesleha/Shopwise/internal/repository"
	"github.com/mnesleha/Shopwise/internal/service"
)

// Моки для всех зависимостей сервисов

// MockCartRepo
type MockCartRepo struct {
	CreateFunc                        func(ctx context.Context, c *models.Cart) error
	GetByIDFunc                       func(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	GetActiveByUserFunc               func(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetActiveByTokenHashFunc          func(ctx context.Context, tokenHash string) (*models.Cart, error)
	GetActiveByUserForUpdateFunc      func(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetActiveByTokenHashForUpdateFunc func(ctx context.Context, tokenHash string) (*models.Cart, error)
	ListItemsFunc                     func(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	GetItemFunc                       func(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItemFunc                    func(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantityFunc            func(ctx context.Context, cartID, productID uuid.UUID, quantity int64) (bool, error)
	DeleteItemFunc                    func(ctx context.Context, cartID, productID uuid.UUID) (bool, error)
	MoveItemFunc                      func(ctx context.Context, itemID, destCartID uuid.UUID) error
	AdoptFunc                         func(ctx context.Context, cartID, userID uuid.UUID) (bool, error)
	MarkMergedFunc                    func(ctx context.Context, cartID, intoCartID uuid.UUID, at time.Time) (bool, error)
	ConvertIfActiveFunc               func(ctx context.Context, cartID uuid.UUID) (bool, error)
	WithTxFunc                        func(ctx context.Context, fn func(txCarts repository.CartRepo, txProducts repository.ProductRepo) error) error

	// репозитории, которые WithTx по умолчанию отдаёт в fn
	TxProducts *MockProductRepo
}

func (m *MockCartRepo) Create(ctx context.Context, c *models.Cart) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return nil
}

func (m *MockCartRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockCartRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if m.GetActiveByUserFunc != nil {
		return m.GetActiveByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockCartRepo) GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.Cart, error) {
	if m.GetActiveByTokenHashFunc != nil {
		return m.GetActiveByTokenHashFunc(ctx, tokenHash)
	}
	return nil, nil
}

func (m *MockCartRepo) GetActiveByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if m.GetActiveByUserForUpdateFunc != nil {
		return m.GetActiveByUserForUpdateFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockCartRepo) GetActiveByTokenHashForUpdate(ctx context.Context, tokenHash string) (*models.Cart, error) {
	if m.GetActiveByTokenHashForUpdateFunc != nil {
		return m.GetActiveByTokenHashForUpdateFunc(ctx, tokenHash)
	}
	return nil, nil
}

func (m *MockCartRepo) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	if m.ListItemsFunc != nil {
		return m.ListItemsFunc(ctx, cartID)
	}
	return nil, nil
}

func (m *MockCartRepo) GetItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	if m.GetItemFunc != nil {
		return m.GetItemFunc(ctx, cartID, productID)
	}
	return nil, nil
}

func (m *MockCartRepo) CreateItem(ctx context.Context, item *models.CartItem) error {
	if m.CreateItemFunc != nil {
		return m.CreateItemFunc(ctx, item)
	}
	return nil
}

func (m *MockCartRepo) UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int64) (bool, error) {
	if m.UpdateItemQuantityFunc != nil {
		return m.UpdateItemQuantityFunc(ctx, cartID, productID, quantity)
	}
	return true, nil
}

func (m *MockCartRepo) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	if m.DeleteItemFunc != nil {
		return m.DeleteItemFunc(ctx, cartID, productID)
	}
	return true, nil
}

func (m *MockCartRepo) MoveItem(ctx context.Context, itemID, destCartID uuid.UUID) error {
	if m.MoveItemFunc != nil {
		return m.MoveItemFunc(ctx, itemID, destCartID)
	}
	return nil
}

func (m *MockCartRepo) Adopt(ctx context.Context, cartID, userID uuid.UUID) (bool, error) {
	if m.AdoptFunc != nil {
		return m.AdoptFunc(ctx, cartID, userID)
	}
	return true, nil
}

func (m *MockCartRepo) MarkMerged(ctx context.Context, cartID, intoCartID uuid.UUID, at time.Time) (bool, error) {
	if m.MarkMergedFunc != nil {
		return m.MarkMergedFunc(ctx, cartID, intoCartID, at)
	}
	return true, nil
}

func (m *MockCartRepo) ConvertIfActive(ctx context.Context, cartID uuid.UUID) (bool, error) {
	if m.ConvertIfActiveFunc != nil {
		return m.ConvertIfActiveFunc(ctx, cartID)
	}
	return true, nil
}

func (m *MockCartRepo) WithTx(ctx context.Context, fn func(txCarts repository.CartRepo, txProducts repository.ProductRepo) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	products := m.TxProducts
	if products == nil {
		products = &MockProductRepo{}
	}
	return fn(m, products)
}

// MockProductRepo
type MockProductRepo struct {
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByIDForUpdateFunc func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListFunc             func(ctx context.Context, f repository.ProductListFilter) ([]models.Product, int64, error)
	DecrementStockFunc   func(ctx context.Context, id uuid.UUID, qty int64) (bool, error)
	IncrementStockFunc   func(ctx context.Context, id uuid.UUID, qty int64) error
}

func (m *MockProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockProductRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockProductRepo) List(ctx context.Context, f repository.ProductListFilter) ([]models.Product, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, 0, nil
}

func (m *MockProductRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int64) (bool, error) {
	if m.DecrementStockFunc != nil {
		return m.DecrementStockFunc(ctx, id, qty)
	}
	return true, nil
}

func (m *MockProductRepo) IncrementStock(ctx context.Context, id uuid.UUID, qty int64) error {
	if m.IncrementStockFunc != nil {
		return m.IncrementStockFunc(ctx, id, qty)
	}
	return nil
}

// MockOrderRepo
type MockOrderRepo struct {
	CreateFunc              func(ctx context.Context, o *models.Order) error
	GetByIDFunc             func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByIDForUserFunc      func(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	ListFunc                func(ctx context.Context, f repository.OrderListFilter) ([]*models.Order, int64, error)
	CancelIfCreatedFunc     func(ctx context.Context, id uuid.UUID, f repository.CancelFields) (bool, error)
	SetGuestAccessTokenFunc func(ctx context.Context, id uuid.UUID, tokenHash string, at time.Time) error
	ClaimAllForEmailFunc    func(ctx context.Context, userID uuid.UUID, normalizedEmail string, at time.Time) (int64, error)
	WithTxFunc              func(ctx context.Context, fn func(txOrders repository.OrderRepo, txItems repository.OrderItemRepo, txCarts repository.CartRepo, txProducts repository.ProductRepo) error) error

	TxItems    *MockOrderItemRepo
	TxCarts    *MockCartRepo
	TxProducts *MockProductRepo
}

func (m *MockOrderRepo) Create(ctx context.Context, o *models.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	o.ID = uuid.New()
	return nil
}

func (m *MockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockOrderRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	if m.GetByIDForUserFunc != nil {
		return m.GetByIDForUserFunc(ctx, id, userID)
	}
	return nil, nil
}

func (m *MockOrderRepo) List(ctx context.Context, f repository.OrderListFilter) ([]*models.Order, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, 0, nil
}

func (m *MockOrderRepo) CancelIfCreated(ctx context.Context, id uuid.UUID, f repository.CancelFields) (bool, error) {
	if m.CancelIfCreatedFunc != nil {
		return m.CancelIfCreatedFunc(ctx, id, f)
	}
	return true, nil
}

func (m *MockOrderRepo) SetGuestAccessToken(ctx context.Context, id uuid.UUID, tokenHash string, at time.Time) error {
	if m.SetGuestAccessTokenFunc != nil {
		return m.SetGuestAccessTokenFunc(ctx, id, tokenHash, at)
	}
	return nil
}

func (m *MockOrderRepo) ClaimAllForEmail(ctx context.Context, userID uuid.UUID, normalizedEmail string, at time.Time) (int64, error) {
	if m.ClaimAllForEmailFunc != nil {
		return m.ClaimAllForEmailFunc(ctx, userID, normalizedEmail, at)
	}
	return 0, nil
}

func (m *MockOrderRepo) WithTx(ctx context.Context, fn func(txOrders repository.OrderRepo, txItems repository.OrderItemRepo, txCarts repository.CartRepo, txProducts repository.ProductRepo) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	items := m.TxItems
	if items == nil {
		items = &MockOrderItemRepo{}
	}
	carts := m.TxCarts
	if carts == nil {
		carts = &MockCartRepo{}
	}
	products := m.TxProducts
	if products == nil {
		products = &MockProductRepo{}
	}
	return fn(m, items, carts, products)
}

// MockOrderItemRepo
type MockOrderItemRepo struct {
	BulkCreateFunc  func(ctx context.Context, items []models.OrderItem) error
	ListByOrderFunc func(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
}

func (m *MockOrderItemRepo) BulkCreate(ctx context.Context, items []models.OrderItem) error {
	if m.BulkCreateFunc != nil {
		return m.BulkCreateFunc(ctx, items)
	}
	return nil
}

func (m *MockOrderItemRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	if m.ListByOrderFunc != nil {
		return m.ListByOrderFunc(ctx, orderID)
	}
	return nil, nil
}

// MockUserRepo
type MockUserRepo struct {
	CreateFunc              func(ctx context.Context, u *models.User) error
	GetByEmailFunc          func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc             func(ctx context.Context, id uuid.UUID) (*models.User, error)
	ExistsByEmailFunc       func(ctx context.Context, email string) (bool, error)
	UpdateEmailVerifiedFunc func(ctx context.Context, user *models.User) error
}

func (m *MockUserRepo) Create(ctx context.Context, u *models.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	u.ID = uuid.New()
	return nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.ExistsByEmailFunc != nil {
		return m.ExistsByEmailFunc(ctx, email)
	}
	return false, nil
}

func (m *MockUserRepo) UpdateEmailVerified(ctx context.Context, user *models.User) error {
	if m.UpdateEmailVerifiedFunc != nil {
		return m.UpdateEmailVerifiedFunc(ctx, user)
	}
	return nil
}

// MockRefreshRepo
type MockRefreshRepo struct {
	CreateFunc         func(ctx context.Context, t *models.RefreshToken) error
	GetByHashFunc      func(ctx context.Context, hash string) (*models.RefreshToken, error)
	IsActiveByHashFunc func(ctx context.Context, hash string, now time.Time) (bool, error)
	RevokeByHashFunc   func(ctx context.Context, hash string) (bool, error)
	RevokeAllFunc      func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (m *MockRefreshRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	return nil
}

func (m *MockRefreshRepo) GetByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	if m.GetByHashFunc != nil {
		return m.GetByHashFunc(ctx, hash)
	}
	return nil, nil
}

func (m *MockRefreshRepo) IsActiveByHash(ctx context.Context, hash string, now time.Time) (bool, error) {
	if m.IsActiveByHashFunc != nil {
		return m.IsActiveByHashFunc(ctx, hash, now)
	}
	return false, nil
}

func (m *MockRefreshRepo) RevokeByHash(ctx context.Context, hash string) (bool, error) {
	if m.RevokeByHashFunc != nil {
		return m.RevokeByHashFunc(ctx, hash)
	}
	return true, nil
}

func (m *MockRefreshRepo) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.RevokeAllFunc != nil {
		return m.RevokeAllFunc(ctx, userID)
	}
	return 0, nil
}

// MockEmailVerificationRepo
type MockEmailVerificationRepo struct {
	CreateFunc           func(ctx context.Context, t *models.EmailVerificationToken) error
	GetValidByHashFunc   func(ctx context.Context, tokenHash string, now time.Time) (*models.EmailVerificationToken, error)
	ConsumeFunc          func(ctx context.Context, id string) (bool, error)
	DeleteAllForUserFunc func(ctx context.Context, userID string) (int64, error)
}

func (m *MockEmailVerificationRepo) Create(ctx context.Context, t *models.EmailVerificationToken) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	return nil
}

func (m *MockEmailVerificationRepo) GetValidByHash(ctx context.Context, tokenHash string, now time.Time) (*models.EmailVerificationToken, error) {
	if m.GetValidByHashFunc != nil {
		return m.GetValidByHashFunc(ctx, tokenHash, now)
	}
	return nil, repository.ErrNotFound
}

func (m *MockEmailVerificationRepo) Consume(ctx context.Context, id string) (bool, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, id)
	}
	return true, nil
}

func (m *MockEmailVerificationRepo) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	if m.DeleteAllForUserFunc != nil {
		return m.DeleteAllForUserFunc(ctx, userID)
	}
	return 0, nil
}

// MockPasswordHasher
type MockPasswordHasher struct {
	HashFunc    func(password string) (string, error)
	CompareFunc func(hash, password string) bool
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *MockPasswordHasher) Compare(hash, password string) bool {
	if m.CompareFunc != nil {
		return m.CompareFunc(hash, password)
	}
	return hash == "hashed:"+password
}

// MockTokenProvider
type MockTokenProvider struct {
	SignAccessFunc             func(ctx context.Context, sub uuid.UUID, ttl time.Duration) (string, time.Time, error)
	NewRefreshFunc             func(ctx context.Context, sub uuid.UUID, ttl time.Duration) (string, string, time.Time, error)
	ParseAndValidateAccessFunc func(ctx context.Context, token string) (*service.Claims, error)
}

func (m *MockTokenProvider) SignAccess(ctx context.Context, sub uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	if m.SignAccessFunc != nil {
		return m.SignAccessFunc(ctx, sub, ttl)
	}
	return "access-" + sub.String(), time.Now().Add(ttl), nil
}

func (m *MockTokenProvider) NewRefresh(ctx context.Context, sub uuid.UUID, ttl time.Duration) (string, string, time.Time, error) {
	if m.NewRefreshFunc != nil {
		return m.NewRefreshFunc(ctx, sub, ttl)
	}
	return "refresh-opaque", "refresh-hash", time.Now().Add(ttl), nil
}

func (m *MockTokenProvider) ParseAndValidateAccess(ctx context.Context, token string) (*service.Claims, error) {
	if m.ParseAndValidateAccessFunc != nil {
		return m.ParseAndValidateAccessFunc(ctx, token)
	}
	return nil, nil
}

// MockEmailProducer
type MockEmailProducer struct {
	SendEmailFunc func(ctx context.Context, key string, msg producer.EmailMessage) error
	Sent          []producer.EmailMessage
}

func (m *MockEmailProducer) SendEmail(ctx context.Context, key string, msg producer.EmailMessage) error {
	m.Sent = append(m.Sent, msg)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, key, msg)
	}
	return nil
}

// MockReconciler
type MockReconciler struct {
	ReconcileFunc func(ctx context.Context, userID uuid.UUID, rawCartToken string) (*service.MergeReport, error)
}

func (m *MockReconciler) Reconcile(ctx context.Context, userID uuid.UUID, rawCartToken string) (*service.MergeReport, error) {
	if m.ReconcileFunc != nil {
		return m.ReconcileFunc(ctx, userID, rawCartToken)
	}
	return &service.MergeReport{}, nil
}

// MockClaimer
type MockClaimer struct {
	ClaimGuestOrdersFunc func(ctx context.Context, user *models.User) (int, error)
}

func (m *MockClaimer) ClaimGuestOrders(ctx context.Context, user *models.User) (int, error) {
	if m.ClaimGuestOrdersFunc != nil {
		return m.ClaimGuestOrdersFunc(ctx, user)
	}
	return 0, nil
}

// MockRateLimiter
type MockRateLimiter struct {
	RateLimitHitFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *MockRateLimiter) RateLimitHit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if m.RateLimitHitFunc != nil {
		return m.RateLimitHitFunc(ctx, key, limit, window)
	}
	return false, nil
}
