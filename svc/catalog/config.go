package catalog

import (
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/gymcrm/pkg/redis"
)

// Config selects the plan cache.
type Config struct {
	// PlanCache is one of "lru", "redis" or "none".
	PlanCache     string        `env:"CATALOG_PLAN_CACHE" envDefault:"lru"`
	PlanCacheSize int           `env:"CATALOG_PLAN_CACHE_SIZE" envDefault:"256"`
	PlanCacheTTL  time.Duration `env:"CATALOG_PLAN_CACHE_TTL" envDefault:"10m"`
}

// NewPlanCacheFromConfig builds the configured cache. The redis backend
// falls back to the LRU when client is nil so a missing REDIS_URL does not
// stop the service.
func NewPlanCacheFromConfig(cfg Config, client goredis.Cmdable, keyPrefix string, log *slog.Logger) (PlanCache, error) {
	switch cfg.PlanCache {
	case "", "lru":
		return NewLRUCache(cfg.PlanCacheSize, cfg.PlanCacheTTL), nil
	case "redis":
		if client == nil {
			return NewLRUCache(cfg.PlanCacheSize, cfg.PlanCacheTTL), nil
		}
		return NewRedisCache(redis.NewJSONCache[Plan](client, keyPrefix+"plan:", cfg.PlanCacheTTL), log), nil
	case "none":
		return noCache{}, nil
	default:
		return nil, ErrCacheBackend
	}
}
