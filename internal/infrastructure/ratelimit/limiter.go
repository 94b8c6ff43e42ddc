package ratelimit

import (
	"fmt"

	"github.com/go-redis/redis/v8"

	ratelimitdomain "reward-server/internal/domain/ratelimit"
	"reward-server/internal/infrastructure/config"
)

// New 設定に応じたバックエンドのLimiterを返す
func New(cfg *config.RateLimitConfig, client *redis.Client) (ratelimitdomain.Limiter, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryLimiter(cfg.Shards), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis client is required for rate limit backend redis")
		}
		return NewRedisLimiter(client), nil
	default:
		return nil, fmt.Errorf("unsupported rate limit backend: %s", cfg.Backend)
	}
}
