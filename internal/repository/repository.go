package repository

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type Repository struct {
	DB                 *gorm.DB
	Users              UserRepo
	RefreshTokens      RefreshRepo
	EmailVerifications EmailVerificationRepo
	Products           ProductRepo
	Carts              CartRepo
	Orders             OrderRepo
	OrderItems         OrderItemRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:                 db,
		Users:              NewUserRepo(db),
		RefreshTokens:      NewRefreshRepo(db),
		EmailVerifications: NewEmailVerificationRepo(db),
		Products:           NewProductRepo(db),
		Carts:              NewCartRepo(db),
		Orders:             NewOrderRepo(db),
		OrderItems:         NewOrderItemRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }
