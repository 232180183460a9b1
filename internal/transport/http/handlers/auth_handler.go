package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/transport/http/dto"
	"github.com/mnesleha/Shopwise/internal/transport/http/middleware"
)

type AuthHandler struct {
	sessions *service.SessionService
	cookies  CookieConfig
	now      func() time.Time
	log      *zap.Logger
}

func NewAuthHandler(sessions *service.SessionService, cookies CookieConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		cookies:  cookies,
		now:      time.Now,
		log:      log,
	}
}

// Register godoc
// @Summary Регистрация пользователя
// @Description Создаёт аккаунт и отправляет письмо подтверждения почты
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} dto.RegisterResponse
// @Router /auth/register/ [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid registration request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	user, err := h.sessions.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewRegisterResponse(user))
}

// Login godoc
// @Summary Авторизация
// @Description Выдаёт пару токенов; сливает анонимную корзину из cookie
// и приписывает гостевые заказы подтверждённой почты
// @Tags auth
// @Router /auth/login/ [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	rawCartToken, _ := c.Cookie(middleware.CartCookie)

	result, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password, rawCartToken)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	now := h.now()
	h.cookies.setAuth(c, result.Tokens, now)
	// токен анонимной корзины после слияния неразрешим
	h.cookies.clearCartToken(c)

	c.JSON(http.StatusOK, dto.LoginResponse{
		UserID:        result.User.ID.String(),
		Email:         result.User.Email,
		Tokens:        dto.NewTokens(result.Tokens, now),
		CartMerge:     result.CartMerge,
		ClaimedOrders: result.ClaimedOrders,
	})
}

// Refresh godoc
// @Summary Обновление пары токенов
// @Tags auth
// @Router /auth/refresh/ [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	_ = c.ShouldBindJSON(&req)
	raw := req.RefreshToken
	if raw == "" {
		raw, _ = c.Cookie(middleware.RefreshCookie)
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), raw)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	now := h.now()
	h.cookies.setAuth(c, *pair, now)
	c.JSON(http.StatusOK, dto.RefreshResponse{Tokens: dto.NewTokens(*pair, now)})
}

// Logout godoc
// @Summary Выход: отзыв refresh-токена и очистка cookie
// @Tags auth
// @Router /auth/logout/ [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	_ = c.ShouldBindJSON(&req)
	raw := req.RefreshToken
	if raw == "" {
		raw, _ = c.Cookie(middleware.RefreshCookie)
	}

	if err := h.sessions.Logout(c.Request.Context(), raw); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	h.cookies.clearAuth(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me godoc
// @Summary Текущая сессия
// @Description Анонимный запрос — не ошибка: is_authenticated=false
// @Tags auth
// @Router /auth/me/ [get]
func (h *AuthHandler) Me(c *gin.Context) {
	if _, ok := authedUserID(c); !ok {
		c.JSON(http.StatusOK, dto.MeResponse{IsAuthenticated: false})
		return
	}

	user, err := h.sessions.Me(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.MeResponse{
		IsAuthenticated: true,
		UserID:          user.ID.String(),
		Email:           user.Email,
		EmailVerified:   user.EmailVerified,
	})
}

// VerifyEmail godoc
// @Summary Подтверждение почты одноразовым токеном
// @Tags auth
// @Router /auth/verify-email/ [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	result, err := h.sessions.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyEmailResponse{
		EmailVerified: result.User.EmailVerified,
		ClaimedOrders: result.ClaimedOrders,
	})
}

// RequestVerification godoc
// @Summary Перевыпуск письма подтверждения
// @Description Всегда 202 — существование почты не раскрывается
// @Tags auth
// @Router /auth/request-verification/ [post]
func (h *AuthHandler) RequestVerification(c *gin.Context) {
	var req dto.RequestVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	if err := h.sessions.RequestEmailVerification(c.Request.Context(), req.Email, c.ClientIP()); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.RequestVerificationResponse{Queued: true})
}
