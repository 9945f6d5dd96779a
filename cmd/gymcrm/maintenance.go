package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/gymcrm/internal/db"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/pg"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

func newMigrateCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pgCfg, err := load[pg.Config]()
			if err != nil {
				return err
			}
			pool, err := pg.Connect(ctx, pgCfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pg.Migrate(ctx, pool, db.Migrations, db.MigrationsDir, pgCfg, c.log); err != nil {
				return err
			}
			c.log.InfoContext(ctx, "migrations applied")
			return nil
		},
	}
}

func newSeedPlansCommand(c *cli) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed-plans",
		Short: "Create or update membership plans from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			plans, err := catalog.LoadPlansYAML(f)
			if err != nil {
				return err
			}

			pgCfg, err := load[pg.Config]()
			if err != nil {
				return err
			}
			pool, err := pg.Connect(ctx, pgCfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := catalog.Seed(ctx, catalog.NewPostgres(pool), plans); err != nil {
				return err
			}
			c.log.InfoContext(ctx, "plans seeded", logger.Count(len(plans)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "plans.yaml", "plan definitions")
	return cmd
}

func newExpireCommand(c *cli) *cobra.Command {
	var reminders bool

	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Expire lapsed subscriptions now instead of waiting for the scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.log)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.memberships.Expire(ctx, membership.SystemActor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d subscriptions\n", n)

			if reminders {
				sent, err := a.memberships.SendExpiryReminders(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queued %d expiry reminders\n", sent)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reminders, "reminders", false, "also queue the advance expiry reminders")
	return cmd
}
