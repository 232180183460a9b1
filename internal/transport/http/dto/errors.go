package dto

// BaseError — универсальный корневой формат ошибки.
// Code — машинный код (UPPER_SNAKE, клиент матчится по нему)
// Message — краткое человеко-читаемое описание
// Fields — для валидационных ошибок (имя поля -> текст)
type BaseError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Machine codes клиент обязан распознавать до показа generic-сообщения.
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeEmailExists           = "EMAIL_EXISTS"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeNotFound              = "NOT_FOUND"
	CodeInvalidOrderState     = "INVALID_ORDER_STATE"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeEmptyCart             = "EMPTY_CART"
	CodeCartNotActive         = "CART_NOT_ACTIVE"
	CodeMissingGuestToken     = "MISSING_GUEST_TOKEN"
	CodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
	CodeRateLimited           = "RATE_LIMITED"
	CodeInternal              = "INTERNAL_ERROR"
)

func NewValidationError(msg string, fields map[string]string) BaseError {
	return BaseError{Code: CodeValidation, Message: msg, Fields: fields}
}

func NewError(code, msg string) BaseError {
	return BaseError{Code: code, Message: msg}
}

func NewInternalError() BaseError {
	return BaseError{Code: CodeInternal, Message: "internal server error"}
}
