package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/repository"
	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/transport/http/handlers"
	"github.com/mnesleha/Shopwise/internal/transport/http/middleware"
)

type Deps struct {
	Sessions *service.SessionService
	Carts    *service.CartService
	Checkout *service.CheckoutService
	Products repository.ProductRepo
	Cookies  handlers.CookieConfig

	AllowedOrigins []string
	Log            *zap.Logger
}

// Router собирает публичную HTTP-поверхность витрины. Пути с хвостовым
// слэшем — так их ждёт фронтенд.
func Router(d Deps) *gin.Engine {
	r := gin.Default()
	r.RedirectTrailingSlash = true

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	authHandler := handlers.NewAuthHandler(d.Sessions, d.Cookies, d.Log)
	cartHandler := handlers.NewCartHandler(d.Carts, d.Cookies, d.Log)
	orderHandler := handlers.NewOrderHandler(d.Checkout, d.Cookies, d.Log)
	productHandler := handlers.NewProductHandler(d.Products, d.Log)

	optional := middleware.OptionalAuth(d.Sessions, d.Log)
	required := middleware.AuthRequired(d.Sessions, d.Log)

	auth := r.Group("/auth")
	{
		auth.POST("/register/", authHandler.Register)
		auth.POST("/login/", authHandler.Login)
		auth.POST("/refresh/", authHandler.Refresh)
		auth.POST("/logout/", authHandler.Logout)
		auth.GET("/me/", optional, authHandler.Me)
		auth.POST("/verify-email/", authHandler.VerifyEmail)
		auth.POST("/request-verification/", authHandler.RequestVerification)
	}

	cart := r.Group("/cart", optional)
	{
		cart.GET("/", cartHandler.Get)
		cart.POST("/items/", cartHandler.AddItem)
		cart.PUT("/items/:productId/", cartHandler.UpdateItem)
		cart.DELETE("/items/:productId/", cartHandler.RemoveItem)
		cart.POST("/checkout/", orderHandler.Checkout)
	}

	orders := r.Group("/orders", required)
	{
		orders.GET("/", orderHandler.List)
		orders.GET("/:id/", orderHandler.Get)
		orders.POST("/:id/cancel/", orderHandler.Cancel)
	}

	r.GET("/guest/orders/:id/", orderHandler.GetGuest)

	r.GET("/products/", productHandler.List)
	r.GET("/products/:id/", productHandler.Get)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
