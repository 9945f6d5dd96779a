package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/redis"
)

// PlanCache holds plans by id. Implementations treat backend failures as
// misses.
type PlanCache interface {
	Get(ctx context.Context, id uuid.UUID) (Plan, bool)
	Set(ctx context.Context, p Plan)
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

// CachedPlans is a read-through PlanSource. ListPlans is not cached; it
// refreshes the per-plan entries instead.
type CachedPlans struct {
	src   PlanSource
	cache PlanCache
}

func NewCachedPlans(src PlanSource, cache PlanCache) *CachedPlans {
	if src == nil {
		panic("catalog: nil plan source")
	}
	if cache == nil {
		panic("catalog: nil plan cache")
	}
	return &CachedPlans{src: src, cache: cache}
}

func (c *CachedPlans) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	if p, ok := c.cache.Get(ctx, id); ok {
		return p, nil
	}
	p, err := c.src.GetPlan(ctx, id)
	if err != nil {
		return Plan{}, err
	}
	c.cache.Set(ctx, p)
	return p, nil
}

func (c *CachedPlans) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	plans, err := c.src.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		c.cache.Set(ctx, p)
	}
	return plans, nil
}

// UpsertPlan writes through when the source is a PlanWriter.
func (c *CachedPlans) UpsertPlan(ctx context.Context, p Plan) error {
	w, ok := c.src.(PlanWriter)
	if !ok {
		return errors.New("catalog: plan source is read-only")
	}
	if err := w.UpsertPlan(ctx, p); err != nil {
		return err
	}
	c.cache.Invalidate(ctx, p.ID)
	return nil
}

type lruCache struct {
	lru *expirable.LRU[uuid.UUID, Plan]
}

// NewLRUCache keeps up to size plans in process for ttl.
func NewLRUCache(size int, ttl time.Duration) PlanCache {
	if size <= 0 {
		size = 256
	}
	return &lruCache{lru: expirable.NewLRU[uuid.UUID, Plan](size, nil, ttl)}
}

func (c *lruCache) Get(_ context.Context, id uuid.UUID) (Plan, bool) {
	p, ok := c.lru.Get(id)
	if !ok {
		return Plan{}, false
	}
	return clonePlan(p), true
}

func (c *lruCache) Set(_ context.Context, p Plan) {
	c.lru.Add(p.ID, clonePlan(p))
}

func (c *lruCache) Invalidate(_ context.Context, ids ...uuid.UUID) {
	for _, id := range ids {
		c.lru.Remove(id)
	}
}

type redisCache struct {
	store *redis.JSONCache[Plan]
	log   *slog.Logger
}

// NewRedisCache shares plans between replicas through Redis.
func NewRedisCache(store *redis.JSONCache[Plan], log *slog.Logger) PlanCache {
	if store == nil {
		panic("catalog: nil redis cache")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &redisCache{store: store, log: log.With(logger.Component("catalog.redis_cache"))}
}

func (c *redisCache) Get(ctx context.Context, id uuid.UUID) (Plan, bool) {
	p, err := c.store.Get(ctx, id.String())
	if errors.Is(err, redis.ErrCacheMiss) {
		return Plan{}, false
	}
	if err != nil {
		c.log.WarnContext(ctx, "plan cache read failed", logger.PlanID(id), logger.Error(err))
		return Plan{}, false
	}
	return p, true
}

func (c *redisCache) Set(ctx context.Context, p Plan) {
	if err := c.store.Set(ctx, p.ID.String(), p); err != nil {
		c.log.WarnContext(ctx, "plan cache write failed", logger.PlanID(p.ID), logger.Error(err))
	}
}

func (c *redisCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.log.WarnContext(ctx, "plan cache invalidation failed", logger.Error(err))
	}
}

type noCache struct{}

func (noCache) Get(context.Context, uuid.UUID) (Plan, bool) { return Plan{}, false }
func (noCache) Set(context.Context, Plan)                   {}
func (noCache) Invalidate(context.Context, ...uuid.UUID)    {}
