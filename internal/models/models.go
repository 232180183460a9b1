package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string    `gorm:"not null"` // уникальность — функциональный индекс lower(email)
	Password      string    `gorm:"not null"` // bcrypt hash
	EmailVerified bool      `gorm:"not null;default:false;index"`
	CreatedAt     time.Time `gorm:"not null;default:now()"`
	UpdatedAt     time.Time `gorm:"not null;default:now()"`
}

func (User) TableName() string { return "users" }

type EmailVerificationToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Email     string    `gorm:"not null"`
	TokenHash string    `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Consumed  bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (EmailVerificationToken) TableName() string { return "email_verification_tokens" }

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash string    `gorm:"not null;index"` // хранится ХЭШ opaque токена
	ExpiresAt time.Time `gorm:"not null;index"`
	Revoked   bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"type:text;not null"`
	PriceCents    int64     `gorm:"not null"`
	StockQuantity int64     `gorm:"not null;default:0"`
	IsActive      bool      `gorm:"not null;default:true;index"`
	CreatedAt     time.Time `gorm:"not null;default:now()"`
	UpdatedAt     time.Time `gorm:"not null;default:now()"`
}

func (Product) TableName() string { return "products" }

func (p *Product) IsSellable() bool { return p.IsActive && p.StockQuantity > 0 }

// Статус корзины — строковый тип (как статус заказа)
type CartStatus string

const (
	CartStatusActive    CartStatus = "ACTIVE"
	CartStatusMerged    CartStatus = "MERGED"
	CartStatusConverted CartStatus = "CONVERTED"
)

// Cart принадлежит либо пользователю (UserID), либо анонимной сессии
// (AnonymousTokenHash). Одновременно заполнено ровно одно из двух.
// Единственность ACTIVE-корзины пользователя гарантирует частичный
// уникальный индекс (см. internal/migrate).
type Cart struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             *uuid.UUID `gorm:"type:uuid;index"`
	AnonymousTokenHash *string    `gorm:"type:text;index"`
	Status             CartStatus `gorm:"type:text;not null;default:'ACTIVE';index"`
	MergedIntoCartID   *uuid.UUID `gorm:"type:uuid"`
	MergedAt           *time.Time
	CreatedAt          time.Time `gorm:"not null;default:now();index"`
	UpdatedAt          time.Time `gorm:"not null;default:now()"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

func (Cart) TableName() string { return "carts" }

type CartItem struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_cart_items_cart_product"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_cart_items_cart_product"`
	Quantity       int64     `gorm:"type:bigint;not null"` // CHECK (quantity >= 1) в миграции
	UnitPriceCents int64     `gorm:"not null"`             // снимок цены на момент добавления
	CreatedAt      time.Time `gorm:"not null;default:now()"`
	UpdatedAt      time.Time `gorm:"not null;default:now()"`
}

func (CartItem) TableName() string { return "cart_items" }

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type CancelledBy string

const (
	CancelledByCustomer CancelledBy = "CUSTOMER"
	CancelledByAdmin    CancelledBy = "ADMIN"
)

type Order struct {
	ID     uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID *uuid.UUID  `gorm:"type:uuid;index"` // nil — гостевой заказ
	Status OrderStatus `gorm:"type:text;not null;default:'CREATED';index"`

	CustomerEmail           string `gorm:"type:text;not null"`
	CustomerEmailNormalized string `gorm:"type:text;not null;index"`

	ShippingName         string `gorm:"type:text;not null"`
	ShippingAddressLine1 string `gorm:"type:text;not null"`
	ShippingAddressLine2 string `gorm:"type:text"`
	ShippingCity         string `gorm:"type:text;not null"`
	ShippingPostalCode   string `gorm:"type:text;not null"`
	ShippingCountry      string `gorm:"type:text;not null"`
	ShippingPhone        string `gorm:"type:text;not null"`

	BillingSameAsShipping bool   `gorm:"not null;default:true"`
	BillingName           string `gorm:"type:text"`
	BillingAddressLine1   string `gorm:"type:text"`
	BillingAddressLine2   string `gorm:"type:text"`
	BillingCity           string `gorm:"type:text"`
	BillingPostalCode     string `gorm:"type:text"`
	BillingCountry        string `gorm:"type:text"`
	BillingPhone          string `gorm:"type:text"`

	TotalCents int64 `gorm:"not null;default:0"`

	// Гостевой заказ до «приклеивания» к аккаунту
	IsClaimed bool       `gorm:"not null;default:false;index:ix_orders_claimed_email,priority:1"`
	ClaimedAt *time.Time `gorm:""`

	// Капабилити-токен доступа к гостевому заказу; хранится только хэш
	GuestAccessTokenHash      *string `gorm:"type:text"`
	GuestAccessTokenCreatedAt *time.Time

	CancelReason *string      `gorm:"type:text"`
	CancelledBy  *CancelledBy `gorm:"type:text"`
	CancelledAt  *time.Time

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_order_items_order_product"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_order_items_order_product"`
	Quantity       int64     `gorm:"type:bigint;not null"`
	UnitPriceCents int64     `gorm:"not null"`
	LineTotalCents int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null;default:now()"`
}

func (OrderItem) TableName() string { return "order_items" }
