package dto

import (
	"time"

	"github.com/mnesleha/Shopwise/internal/models"
	"github.com/mnesleha/Shopwise/internal/service"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type RegisterResponse struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type Tokens struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	AccessExpiresIn  int64  `json:"access_expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

type LoginResponse struct {
	UserID        string               `json:"user_id"`
	Email         string               `json:"email"`
	Tokens        Tokens               `json:"tokens"`
	CartMerge     *service.MergeReport `json:"cart_merge,omitempty"`
	ClaimedOrders int                  `json:"claimed_orders"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	Tokens Tokens `json:"tokens"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type MeResponse struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	UserID          string `json:"user_id,omitempty"`
	Email           string `json:"email,omitempty"`
	EmailVerified   bool   `json:"email_verified,omitempty"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type VerifyEmailResponse struct {
	EmailVerified bool `json:"email_verified"`
	ClaimedOrders int  `json:"claimed_orders"`
}

type RequestVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type RequestVerificationResponse struct {
	Queued bool `json:"queued"`
}

func NewTokens(pair service.TokenPair, now time.Time) Tokens {
	return Tokens{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshOpaque,
		AccessExpiresIn:  int64(pair.AccessExpiresAt.Sub(now).Seconds()),
		RefreshExpiresIn: int64(pair.RefreshExpiresAt.Sub(now).Seconds()),
	}
}

func NewRegisterResponse(u *models.User) RegisterResponse {
	return RegisterResponse{
		UserID:        u.ID.String(),
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
