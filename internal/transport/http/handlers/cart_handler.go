package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/transport/http/dto"
)

type CartHandler struct {
	carts   *service.CartService
	cookies CookieConfig
	log     *zap.Logger
}

func NewCartHandler(carts *service.CartService, cookies CookieConfig, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, cookies: cookies, log: log}
}

// Get godoc
// @Summary Корзина текущей сессии
// @Description Для новой анонимной сессии создаёт корзину и ставит
// httpOnly cookie cart_token
// @Tags cart
// @Router /cart/ [get]
func (h *CartHandler) Get(c *gin.Context) {
	cart, rawToken, err := h.carts.GetOrCreate(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if rawToken != "" {
		h.cookies.setCartToken(c, rawToken)
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

// AddItem godoc
// @Summary Добавление товара в корзину
// @Tags cart
// @Router /cart/items/ [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("validation failed", map[string]string{"product_id": "Invalid product id."}))
		return
	}

	cart, rawToken, err := h.carts.AddItem(c.Request.Context(), cartOwner(c), productID, req.Quantity)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if rawToken != "" {
		h.cookies.setCartToken(c, rawToken)
	}
	c.JSON(http.StatusCreated, dto.NewCartResponse(cart))
}

// UpdateItem godoc
// @Summary Изменение количества строки корзины
// @Tags cart
// @Router /cart/items/{productId}/ [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("validation failed", map[string]string{"product_id": "Invalid product id."}))
		return
	}

	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	cart, err := h.carts.UpdateItemQuantity(c.Request.Context(), cartOwner(c), productID, req.Quantity)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

// RemoveItem godoc
// @Summary Удаление строки корзины
// @Tags cart
// @Router /cart/items/{productId}/ [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("validation failed", map[string]string{"product_id": "Invalid product id."}))
		return
	}

	cart, err := h.carts.RemoveItem(c.Request.Context(), cartOwner(c), productID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}
