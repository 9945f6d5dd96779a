package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/metrics"
	"github.com/dmitrymomot/gymcrm/pkg/pg"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
	"github.com/dmitrymomot/gymcrm/pkg/redis"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

// app holds the dependencies shared by the commands.
type app struct {
	log     *slog.Logger
	clock   clock.Clock
	pool    *pgxpool.Pool
	redis   *goredis.Client
	metrics *metrics.Metrics

	directory   *catalog.Postgres
	plans       *catalog.CachedPlans
	memberships *membership.Service
	tasks       *queue.PostgresStorage
}

func newApp(ctx context.Context, log *slog.Logger) (*app, error) {
	clkCfg, err := load[clock.Config]()
	if err != nil {
		return nil, err
	}
	clk, err := clock.NewFromConfig(clkCfg)
	if err != nil {
		return nil, err
	}

	pgCfg, err := load[pg.Config]()
	if err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, err
	}

	a := &app{log: log, clock: clk, pool: pool}

	redisCfg, err := load[redis.Config]()
	if err != nil {
		a.Close()
		return nil, err
	}
	if redisCfg.Enabled() {
		if a.redis, err = redis.Connect(ctx, redisCfg); err != nil {
			a.Close()
			return nil, err
		}
	}

	metricsCfg, err := load[metricsConfig]()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.metrics = metrics.New(metricsCfg.Namespace)

	catCfg, err := load[catalog.Config]()
	if err != nil {
		a.Close()
		return nil, err
	}
	var cacheClient goredis.Cmdable
	if a.redis != nil {
		cacheClient = a.redis
	}
	cache, err := catalog.NewPlanCacheFromConfig(catCfg, cacheClient, redisCfg.KeyPrefix, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	queueCfg, err := load[queue.Config]()
	if err != nil {
		a.Close()
		return nil, err
	}
	jobsCfg, err := load[jobsConfig]()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.directory = catalog.NewPostgres(pool)
	a.plans = catalog.NewCachedPlans(a.directory, cache)
	a.tasks = queue.NewPostgresStorage(pool, clk)
	a.memberships = membership.NewService(
		membership.NewPostgresStore(pool, clk),
		a.plans,
		a.directory,
		membership.WithClock(clk),
		membership.WithLogger(log),
		membership.WithObserver(a.metrics),
		membership.WithNotificationRetries(queueCfg.MaxRetries),
		membership.WithReminderDays(jobsCfg.ReminderDays...),
	)
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			a.log.Warn("failed to close redis client", logger.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
