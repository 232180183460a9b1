package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/pkg/database"
)

type Config struct {
	Port string
	Env  string

	JWT    JWT
	DB     DB
	Redis  Redis
	Kafka  Kafka
	SMTP   SMTP
	Guest  Guest
	CORS   CORS
	Clean  Clean
	Cookie Cookie
}

type JWT struct {
	AccessSecret string
	Issuer       string
	Audience     string
	AccessExp    time.Duration
	RefreshExp   time.Duration
}

type DB struct {
	database.Config
}

type Redis struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type Kafka struct {
	Enabled    bool
	Brokers    []string
	EmailTopic string
	GroupID    string
}

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	TMPLDir  string
}

// Guest — параметры гостевого доступа к заказам.
type Guest struct {
	// секрет-префикс перед хэшированием капабилити-токена
	TokenSecret string
}

type CORS struct {
	AllowedOrigins []string
}

type Clean struct {
	Interval     time.Duration
	AnonCartTTL  time.Duration
	VerifyTokTTL time.Duration
}

type Cookie struct {
	Domain string
	Secure bool
}

func Load(log *zap.Logger) *Config {
	return &Config{
		Port: getEnv("APP_PORT", log),
		Env:  getEnvDefault("APP_ENV", "development"),
		JWT: JWT{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", log),
			Issuer:       getEnv("JWT_ISSUER", log),
			Audience:     getEnv("JWT_AUDIENCE", log),
			AccessExp:    parseDurationWithDays(getEnvDefault("ACCESS_EXP", "15m")),
			RefreshExp:   parseDurationWithDays(getEnvDefault("REFRESH_EXP", "30d")),
		},
		DB: DB{
			Config: database.Config{
				Host:     getEnv("DB_HOST", log),
				Port:     getEnv("DB_PORT", log),
				User:     getEnv("DB_USER", log),
				Password: getEnv("DB_PASSWORD", log),
				Name:     getEnv("DB_NAME", log),
				SSLMode:  getEnv("DB_SSLMODE", log),
			},
		},
		Redis: Redis{
			Enabled:  getEnvDefault("REDIS_ENABLED", "false") == "true",
			Addr:     getEnvDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       atoiDefault(os.Getenv("REDIS_DB"), 0),
		},
		Kafka: Kafka{
			Enabled:    getEnvDefault("KAFKA_ENABLED", "false") == "true",
			Brokers:    splitAndTrim(os.Getenv("KAFKA_BROKERS")),
			EmailTopic: getEnvDefault("KAFKA_TOPIC_EMAIL", "shopwise.emails"),
			GroupID:    getEnvDefault("KAFKA_GROUP_ID", "shopwise-notifier"),
		},
		SMTP: SMTP{
			Host:     getEnvDefault("SMTP_HOST", ""),
			Port:     atoiDefault(os.Getenv("SMTP_PORT"), 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnvDefault("SMTP_FROM", "no-reply@shopwise.local"),
			TMPLDir:  getEnvDefault("TMPL_DIR", "templates"),
		},
		Guest: Guest{
			TokenSecret: getEnv("GUEST_TOKEN_SECRET", log),
		},
		CORS: CORS{
			AllowedOrigins: splitAndTrim(getEnvDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Clean: Clean{
			Interval:     parseDurationWithDays(getEnvDefault("CLEANUP_INTERVAL", "1h")),
			AnonCartTTL:  parseDurationWithDays(getEnvDefault("ANON_CART_TTL", "30d")),
			VerifyTokTTL: parseDurationWithDays(getEnvDefault("VERIFY_TOKEN_RETENTION", "7d")),
		},
		Cookie: Cookie{
			Domain: os.Getenv("COOKIE_DOMAIN"),
			Secure: getEnvDefault("COOKIE_SECURE", "false") == "true",
		},
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return def
}

func parseDurationWithDays(s string) time.Duration {
	if strings.HasSuffix(s, "d") {
		daysStr := strings.TrimSuffix(s, "d")
		days, err := time.ParseDuration(daysStr + "h")
		if err != nil {
			return 0
		}
		return time.Duration(24) * days
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return duration
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}
