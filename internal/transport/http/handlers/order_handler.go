package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/transport/http/dto"
)

type OrderHandler struct {
	checkout *service.CheckoutService
	cookies  CookieConfig
	log      *zap.Logger
}

func NewOrderHandler(checkout *service.CheckoutService, cookies CookieConfig, log *zap.Logger) *OrderHandler {
	return &OrderHandler{checkout: checkout, cookies: cookies, log: log}
}

// Checkout godoc
// @Summary Оформление заказа из корзины текущей сессии
// @Description Для гостя в ответе одноразово отдаётся токен доступа к заказу
// @Tags orders
// @Router /cart/checkout/ [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), cartOwner(c), req.ToInput())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	// корзина конвертирована — токен больше ни к чему не привязан
	if _, authed := authedUserID(c); !authed {
		h.cookies.clearCartToken(c)
	}

	c.JSON(http.StatusCreated, dto.CheckoutResponse{
		Order:            dto.NewOrderResponse(result.Order),
		GuestAccessToken: result.GuestRawToken,
	})
}

// List godoc
// @Summary Заказы текущего пользователя
// @Tags orders
// @Router /orders/ [get]
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewError(dto.CodeUnauthorized, "authentication required"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, total, err := h.checkout.ListOrders(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	resp := dto.OrderListResponse{Orders: make([]dto.OrderResponse, 0, len(orders)), Total: total}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, dto.NewOrderResponse(o))
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Заказ пользователя по id
// @Tags orders
// @Router /orders/{id}/ [get]
func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewError(dto.CodeUnauthorized, "authentication required"))
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewError(dto.CodeNotFound, "not found"))
		return
	}

	order, err := h.checkout.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

// Cancel godoc
// @Summary Отмена заказа
// @Description Разрешена только из статуса CREATED; проигранная гонка — 409
// @Tags orders
// @Router /orders/{id}/cancel/ [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewError(dto.CodeUnauthorized, "authentication required"))
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewError(dto.CodeNotFound, "not found"))
		return
	}

	var req dto.CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.checkout.CancelOrder(c.Request.Context(), userID, orderID, req.Reason)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

// GetGuest godoc
// @Summary Гостевой заказ по капабилити-токену
// @Description Неверный токен неотличим от несуществующего заказа (404)
// @Tags orders
// @Router /guest/orders/{id}/ [get]
func (h *OrderHandler) GetGuest(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewError(dto.CodeNotFound, "not found"))
		return
	}

	order, err := h.checkout.GetGuestOrder(c.Request.Context(), orderID, c.Query("token"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}
