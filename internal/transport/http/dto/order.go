package dto

import (
	"time"

	"github.com/mnesleha/Shopwise/internal/models"
	"github.com/mnesleha/Shopwise/internal/service"
)

type AddressPayload struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

type CheckoutRequest struct {
	Email                 string          `json:"email" binding:"required,email"`
	Shipping              AddressPayload  `json:"shipping" binding:"required"`
	BillingSameAsShipping bool            `json:"billing_same_as_shipping"`
	Billing               *AddressPayload `json:"billing"`
}

func (r CheckoutRequest) ToInput() service.CheckoutInput {
	in := service.CheckoutInput{
		Email: r.Email,

		ShippingName:         r.Shipping.Name,
		ShippingAddressLine1: r.Shipping.AddressLine1,
		ShippingAddressLine2: r.Shipping.AddressLine2,
		ShippingCity:         r.Shipping.City,
		ShippingPostalCode:   r.Shipping.PostalCode,
		ShippingCountry:      r.Shipping.Country,
		ShippingPhone:        r.Shipping.Phone,

		BillingSameAsShipping: r.BillingSameAsShipping,
	}
	if !r.BillingSameAsShipping && r.Billing != nil {
		in.BillingName = r.Billing.Name
		in.BillingAddressLine1 = r.Billing.AddressLine1
		in.BillingAddressLine2 = r.Billing.AddressLine2
		in.BillingCity = r.Billing.City
		in.BillingPostalCode = r.Billing.PostalCode
		in.BillingCountry = r.Billing.Country
		in.BillingPhone = r.Billing.Phone
	}
	return in
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type OrderItemResponse struct {
	ProductID      string `json:"product_id"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	Status        string              `json:"status"`
	CustomerEmail string              `json:"customer_email"`
	Shipping      AddressPayload      `json:"shipping"`
	Billing       *AddressPayload     `json:"billing,omitempty"`
	TotalCents    int64               `json:"total_cents"`
	IsClaimed     bool                `json:"is_claimed"`
	CancelReason  *string             `json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	Items         []OrderItemResponse `json:"items"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int64           `json:"total"`
}

type CheckoutResponse struct {
	Order OrderResponse `json:"order"`
	// Для гостя — одноразово показанный токен доступа к заказу
	GuestAccessToken string `json:"guest_access_token,omitempty"`
}

func NewOrderResponse(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID.String(),
		Status:        string(o.Status),
		CustomerEmail: o.CustomerEmail,
		Shipping: AddressPayload{
			Name:         o.ShippingName,
			AddressLine1: o.ShippingAddressLine1,
			AddressLine2: o.ShippingAddressLine2,
			City:         o.ShippingCity,
			PostalCode:   o.ShippingPostalCode,
			Country:      o.ShippingCountry,
			Phone:        o.ShippingPhone,
		},
		TotalCents:   o.TotalCents,
		IsClaimed:    o.IsClaimed,
		CancelReason: o.CancelReason,
		CancelledAt:  o.CancelledAt,
		CreatedAt:    o.CreatedAt,
		Items:        make([]OrderItemResponse, 0, len(o.Items)),
	}
	if !o.BillingSameAsShipping {
		resp.Billing = &AddressPayload{
			Name:         o.BillingName,
			AddressLine1: o.BillingAddressLine1,
			AddressLine2: o.BillingAddressLine2,
			City:         o.BillingCity,
			PostalCode:   o.BillingPostalCode,
			Country:      o.BillingCountry,
			Phone:        o.BillingPhone,
		}
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:      it.ProductID.String(),
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: it.LineTotalCents,
		})
	}
	return resp
}

type ProductResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PriceCents    int64  `json:"price_cents"`
	StockQuantity int64  `json:"stock_quantity"`
	IsActive      bool   `json:"is_active"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int64             `json:"total"`
}

func NewProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		PriceCents:    p.PriceCents,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
	}
}
