// Package redis wraps go-redis/v9 connection setup, health checks and a small
// typed JSON cache used to share read-mostly lookups (the plan catalog)
// between service replicas.
//
//	client, err := redis.Connect(ctx, cfg)
//	plans := redis.NewJSONCache[catalog.Plan](client, cfg.KeyPrefix+"plan:", 10*time.Minute)
package redis
