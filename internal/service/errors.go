package service

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrEmailExists            = errors.New("email already exists")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrTokenExpired           = errors.New("token expired")
	ErrTokenNotFoundOrRevoked = errors.New("refresh token not found or already revoked")
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired email verification token")
	ErrTooManyRequests        = errors.New("too many requests")

	ErrUnauthorized      = errors.New("unauthorized")
	ErrProductNotFound   = errors.New("product not found")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidOrderState = errors.New("invalid order state")
	ErrMissingGuestToken = errors.New("missing guest access token")
	// ErrCartNotActive — корзины нет или её статус уже не ACTIVE
	// (в т.ч. проигранный повторный сабмит чекаута).
	ErrCartNotActive = errors.New("no active cart")
)

// ValidationError — клиентские ошибки полей; до хранилища и сети не доходят.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}
