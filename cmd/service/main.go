package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/config"
	"github.com/mnesleha/Shopwise/internal/cache"
	"github.com/mnesleha/Shopwise/internal/cleanup"
	"github.com/mnesleha/Shopwise/internal/hashing"
	"github.com/mnesleha/Shopwise/internal/producer"
	"github.com/mnesleha/Shopwise/internal/repository"
	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/token"
	"github.com/mnesleha/Shopwise/internal/transport/http/handlers"
	"github.com/mnesleha/Shopwise/internal/transport/http/router"
	"github.com/mnesleha/Shopwise/pkg/database"
	"github.com/mnesleha/Shopwise/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)

	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)

	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("failed to create redis client", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Redis cache enabled")
	} else {
		log.Info("Redis cache disabled")
	}

	var emailProducer *producer.EmailProducer
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		emailProducer = producer.NewEmailProducer(cfg.Kafka.Brokers, cfg.Kafka.EmailTopic)
		defer emailProducer.Close()
		log.Info("Kafka email producer enabled")
	} else {
		log.Info("Kafka email producer disabled")
	}

	hasher := hashing.NewBcrypt(0)
	tokens := token.NewHSProvider(cfg.JWT.AccessSecret, cfg.JWT.Issuer, cfg.JWT.Audience)

	// nil-интерфейсы нельзя собирать из nil-указателей напрямую
	var cartCache service.CartCache
	var limiter service.RateLimiter
	if redisClient != nil {
		cartCache = redisClient
		limiter = redisClient
	}
	var emailQueue service.EmailProducer
	if emailProducer != nil {
		emailQueue = emailProducer
	}

	cartSvc := service.NewCartService(repos.Carts, repos.Products, cartCache, log)
	claimSvc := service.NewClaimService(repos.Orders, log)
	checkoutSvc := service.NewCheckoutService(
		repos.Orders, repos.Carts, cartCache, emailQueue,
		cfg.Guest.TokenSecret, log,
	)
	sessionSvc := service.NewSessionService(
		repos.Users, repos.RefreshTokens, repos.EmailVerifications,
		hasher, tokens, limiter, cartSvc, claimSvc, emailQueue,
		service.SessionConfig{
			AccessTTL:  cfg.JWT.AccessExp,
			RefreshTTL: cfg.JWT.RefreshExp,
		},
		log,
	)

	cleanupSvc := cleanup.NewCleanupService(db, cfg.Clean.AnonCartTTL, cfg.Clean.VerifyTokTTL, log)
	scheduler := cleanup.NewScheduler(cleanupSvc, cfg.Clean.Interval, log)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	scheduler.Start(cleanupCtx)

	r := router.Router(router.Deps{
		Sessions: sessionSvc,
		Carts:    cartSvc,
		Checkout: checkoutSvc,
		Products: repos.Products,
		Cookies: handlers.CookieConfig{
			Domain: cfg.Cookie.Domain,
			Secure: cfg.Cookie.Secure,
		},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Log:            log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-quit
	log.Info("Shutting down HTTP server...")

	scheduler.Stop()
	cleanupCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	log.Info("HTTP server stopped gracefully")
}
