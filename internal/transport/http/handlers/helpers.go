package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/transport/http/dto"
	"github.com/mnesleha/Shopwise/internal/transport/http/middleware"
)

// respondServiceError транслирует сентинелы сервисного слоя в HTTP-ответ.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("validation failed", verr.Fields))
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.NewError(dto.CodeInvalidCredentials, "invalid email or password"))
	case errors.Is(err, service.ErrEmailExists):
		c.JSON(http.StatusConflict, dto.NewError(dto.CodeEmailExists, "user with this email already exists"))
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenNotFoundOrRevoked):
		c.JSON(http.StatusUnauthorized, dto.NewError(dto.CodeUnauthorized, "authentication required"))
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		c.JSON(http.StatusBadRequest, dto.NewError(dto.CodeInvalidOrExpiredToken, "invalid or expired token"))
	case errors.Is(err, service.ErrTooManyRequests):
		c.JSON(http.StatusTooManyRequests, dto.NewError(dto.CodeRateLimited, "too many requests"))
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, dto.NewError(dto.CodeNotFound, "not found"))
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, dto.NewError(dto.CodeEmptyCart, "cart is empty"))
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, dto.NewError(dto.CodeInsufficientStock, "insufficient stock"))
	case errors.Is(err, service.ErrInvalidOrderState):
		c.JSON(http.StatusConflict, dto.NewError(dto.CodeInvalidOrderState, "order can no longer be cancelled"))
	case errors.Is(err, service.ErrCartNotActive):
		c.JSON(http.StatusConflict, dto.NewError(dto.CodeCartNotActive, "no active cart"))
	case errors.Is(err, service.ErrMissingGuestToken):
		c.JSON(http.StatusBadRequest, dto.NewError(dto.CodeMissingGuestToken, "access token is required"))
	default:
		log.Error("unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError())
	}
}

// cartOwner собирает владельца корзины из запроса: user_id из контекста
// аутентификации либо cart_token из cookie.
func cartOwner(c *gin.Context) service.CartOwner {
	if v, ok := c.Get(middleware.CtxUserID); ok {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return service.CartOwner{UserID: &id}
		}
	}
	raw, _ := c.Cookie(middleware.CartCookie)
	return service.CartOwner{RawToken: raw}
}

func authedUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
