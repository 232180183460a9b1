package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mnesleha/Shopwise/internal/models"
	"github.com/mnesleha/Shopwise/internal/producer"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type Claims struct {
	UserID uuid.UUID
	Exp    time.Time
}

type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshOpaque    string // выдаём клиенту
	RefreshExpiresAt time.Time
	RefreshHash      string // сохраняем в БД
}

type TokenProvider interface {
	SignAccess(ctx context.Context, sub uuid.UUID, ttl time.Duration) (token string, exp time.Time, err error)
	NewRefresh(ctx context.Context, sub uuid.UUID, ttl time.Duration) (opaque string, hash string, exp time.Time, err error)
	ParseAndValidateAccess(ctx context.Context, token string) (*Claims, error)
}

type RateLimiter interface {
	RateLimitHit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type CartCache interface {
	GetCart(ctx context.Context, key string) ([]byte, error)
	SetCart(ctx context.Context, key string, value []byte, ttl time.Duration) error
	InvalidateCart(ctx context.Context, key string) error
}

type EmailProducer interface {
	SendEmail(ctx context.Context, key string, msg producer.EmailMessage) error
}

// CartReconciler сливает анонимную корзину в корзину аккаунта при
// переходе Anonymous -> Authenticated.
type CartReconciler interface {
	Reconcile(ctx context.Context, userID uuid.UUID, rawCartToken string) (*MergeReport, error)
}

// OrderClaimer приклеивает гостевые заказы к аккаунту.
type OrderClaimer interface {
	ClaimGuestOrders(ctx context.Context, user *models.User) (int, error)
}
