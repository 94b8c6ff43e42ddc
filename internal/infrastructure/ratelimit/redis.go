package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	ratelimitdomain "reward-server/internal/domain/ratelimit"
	"reward-server/internal/infrastructure/config"
)

// RedisLimiter Redisで共有するクールダウン管理
// SET NX PX で check と record を1コマンドにまとめる
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisClient Redisクライアントを作成して疎通確認する
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewRedisLimiter 新しいRedisLimiterを作成
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		now:    time.Now,
	}
}

// CheckAndRecord キーが存在しなければ cooldown の TTL 付きで作成する
// 既に存在する場合は残り TTL を RetryAfter として返す
func (l *RedisLimiter) CheckAndRecord(ctx context.Context, wallet string, action ratelimitdomain.Action, cooldown time.Duration) error {
	key := ratelimitdomain.Key(wallet, action)

	ok, err := l.client.SetNX(ctx, key, l.now().UnixMilli(), cooldown).Result()
	if err != nil {
		return fmt.Errorf("failed to record rate limit: %w", err)
	}
	if ok {
		return nil
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to read rate limit ttl: %w", err)
	}
	if ttl < 0 {
		// SET と PTTL の間に期限切れになった
		ttl = 0
	}
	return &ratelimitdomain.LimitedError{Action: action, RetryAfter: ttl}
}
