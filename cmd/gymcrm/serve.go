package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/gymcrm/internal/api"
	"github.com/dmitrymomot/gymcrm/pkg/email"
	"github.com/dmitrymomot/gymcrm/pkg/file"
	"github.com/dmitrymomot/gymcrm/pkg/httpserver"
	"github.com/dmitrymomot/gymcrm/pkg/jwt"
	"github.com/dmitrymomot/gymcrm/pkg/pg"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
	"github.com/dmitrymomot/gymcrm/pkg/ratelimiter"
	"github.com/dmitrymomot/gymcrm/pkg/redis"
	"github.com/dmitrymomot/gymcrm/pkg/whatsapp"
	"github.com/dmitrymomot/gymcrm/svc/membership"
	"github.com/dmitrymomot/gymcrm/svc/notify"
)

func newServeCommand(c *cli) *cobra.Command {
	var noWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the notification worker and the job scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c, !noWorker)
		},
	}
	cmd.Flags().BoolVar(&noWorker, "api-only", false, "serve HTTP without the worker and scheduler")
	return cmd
}

func serve(ctx context.Context, c *cli, withWorker bool) error {
	a, err := newApp(ctx, c.log)
	if err != nil {
		return err
	}
	defer a.Close()

	httpCfg, err := load[httpserver.Config]()
	if err != nil {
		return err
	}
	apiCfg, err := load[api.Config]()
	if err != nil {
		return err
	}
	jwtCfg, err := load[jwt.Config]()
	if err != nil {
		return err
	}
	tokens, err := jwt.NewFromConfig(jwtCfg)
	if err != nil {
		return err
	}

	checks := []httpserver.Check{{Name: "postgres", Func: pg.Healthcheck(a.pool)}}
	if a.redis != nil {
		checks = append(checks, httpserver.Check{Name: "redis", Func: redis.Healthcheck(a.redis)})
	}

	rlCfg, err := load[ratelimiter.Config]()
	if err != nil {
		return err
	}

	apiOpts := []api.Option{
		api.WithLogger(c.log),
		api.WithMetrics(a.metrics),
		api.WithReadinessChecks(checks...),
	}
	if rlCfg.Enabled {
		limiter, err := ratelimiter.New(rlCfg)
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, api.WithRateLimiter(limiter))
	}

	handler := api.New(apiCfg, a.memberships, a.plans, tokens, apiOpts...)
	server := httpserver.NewFromConfig(httpCfg, handler, httpserver.WithLogger(c.log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Run(ctx))

	if withWorker {
		worker, scheduler, err := newBackground(ctx, a)
		if err != nil {
			return err
		}
		g.Go(worker.Run(ctx))
		g.Go(scheduler.Run(ctx))
	}

	return g.Wait()
}

// newBackground wires the queue worker with the notification and periodic
// handlers, and the scheduler that enqueues the daily jobs.
func newBackground(ctx context.Context, a *app) (*queue.Worker, *queue.Scheduler, error) {
	queueCfg, err := load[queue.Config]()
	if err != nil {
		return nil, nil, err
	}
	jobsCfg, err := load[jobsConfig]()
	if err != nil {
		return nil, nil, err
	}
	notifyCfg, err := load[notify.Config]()
	if err != nil {
		return nil, nil, err
	}
	emailCfg, err := load[email.Config]()
	if err != nil {
		return nil, nil, err
	}
	waCfg, err := load[whatsapp.Config]()
	if err != nil {
		return nil, nil, err
	}
	storageCfg, err := load[file.Config]()
	if err != nil {
		return nil, nil, err
	}

	mailer, err := email.New(emailCfg)
	if err != nil {
		return nil, nil, err
	}
	storage, err := file.NewFromConfig(ctx, storageCfg)
	if err != nil {
		return nil, nil, err
	}

	notifier := notify.New(notifyCfg, a.memberships, a.directory, a.plans,
		notify.WithWhatsApp(whatsapp.New(waCfg, a.log)),
		notify.WithEmail(mailer),
		notify.WithReceipts(notify.NewReceipts(storage, notifyCfg, a.clock)),
		notify.WithObserver(a.metrics),
		notify.WithClock(a.clock),
		notify.WithLogger(a.log),
	)

	worker, err := queue.NewWorker(a.tasks, append(queue.FromConfig(queueCfg),
		queue.WithWorkerClock(a.clock),
		queue.WithObserver(a.metrics),
		queue.WithWorkerLogger(a.log),
	)...)
	if err != nil {
		return nil, nil, err
	}
	worker.RegisterHandlers(notifier.Handlers()...)
	worker.RegisterHandlers(a.memberships.PeriodicHandlers()...)

	scheduler, err := queue.NewScheduler(a.tasks,
		queue.WithCheckInterval(queueCfg.SchedulerInterval),
		queue.WithSchedulerClock(a.clock),
		queue.WithSchedulerLogger(a.log),
	)
	if err != nil {
		return nil, nil, err
	}
	jobs := map[string]string{
		membership.TaskExpireSweep:     jobsCfg.ExpireSweep,
		membership.TaskExpiryReminders: jobsCfg.ExpiryReminders,
	}
	for name, spec := range jobs {
		schedule, err := queue.CronSchedule(spec)
		if err != nil {
			return nil, nil, err
		}
		if err := scheduler.AddTask(name, schedule, queue.WithMaxRetries(queueCfg.MaxRetries)); err != nil {
			return nil, nil, err
		}
	}
	return worker, scheduler, nil
}
