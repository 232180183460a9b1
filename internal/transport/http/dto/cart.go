package dto

import "github.com/mnesleha/Shopwise/internal/models"

type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

type UpdateItemRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

type CartItemResponse struct {
	ProductID      string `json:"product_id"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type CartResponse struct {
	ID         string             `json:"id"`
	Status     string             `json:"status"`
	Items      []CartItemResponse `json:"items"`
	TotalCents int64              `json:"total_cents"`
}

func NewCartResponse(c *models.Cart) CartResponse {
	resp := CartResponse{
		ID:     c.ID.String(),
		Status: string(c.Status),
		Items:  make([]CartItemResponse, 0, len(c.Items)),
	}
	for _, it := range c.Items {
		line := it.Quantity * it.UnitPriceCents
		resp.TotalCents += line
		resp.Items = append(resp.Items, CartItemResponse{
			ProductID:      it.ProductID.String(),
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: line,
		})
	}
	return resp
}
