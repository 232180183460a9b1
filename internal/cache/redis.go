package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrCacheMiss = errors.New("cache miss")

type RedisClient struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisClient(addr, password string, db int, log *zap.Logger) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis connected successfully", zap.String("addr", addr))

	return &RedisClient{
		client: rdb,
		log:    log,
	}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// RateLimitHit инкрементирует счётчик окна и отвечает, превышен ли лимит.
func (r *RedisClient) RateLimitHit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return n > int64(limit), nil
}

// Кэш корзин: ключ — владелец (user id или хэш анонимного токена),
// значение — сериализованная корзина.
func (r *RedisClient) GetCart(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, cartKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (r *RedisClient) SetCart(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, cartKey(key), value, ttl).Err()
}

func (r *RedisClient) InvalidateCart(ctx context.Context, key string) error {
	return r.client.Del(ctx, cartKey(key)).Err()
}

func cartKey(key string) string { return fmt.Sprintf("cart:%s", key) }
