package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper short-circuits repeated webhook deliveries before they reach the
// database. Completion stays idempotent without it.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

type NopDeduper struct{}

func (NopDeduper) Claim(context.Context, string) (bool, error) { return true, nil }
func (NopDeduper) Release(context.Context, string)             {}

type RedisDeduper struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
	log       *zap.Logger
}

func NewRedisDeduper(rdb *redis.Client, namespace string, ttl time.Duration, log *zap.Logger) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisDeduper{rdb: rdb, namespace: namespace, ttl: ttl, log: log.Named("webhook_dedupe")}
}

// Claim reports false when the key was already claimed. Redis failures fail
// open so deliveries are never dropped.
func (d *RedisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, d.namespace+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		d.log.Warn("dedupe claim failed", zap.String("key", key), zap.Error(err))
		return true, nil
	}
	return ok, nil
}

func (d *RedisDeduper) Release(ctx context.Context, key string) {
	if err := d.rdb.Del(ctx, d.namespace+key).Err(); err != nil {
		d.log.Warn("dedupe release failed", zap.String("key", key), zap.Error(err))
	}
}
