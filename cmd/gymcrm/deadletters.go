package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/pg"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
)

func newDeadLettersCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dead-letters",
		Short: "Inspect and requeue notifications and jobs that ran out of retries",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show the newest dead tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTaskStorage(cmd.Context(), func(s *queue.PostgresStorage) error {
				dead, err := s.ListDeadLetters(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printDeadLetters(cmd.OutOrStdout(), dead)
			})
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 50, "maximum rows to show")

	var maxRetries int8
	requeue := &cobra.Command{
		Use:   "requeue <id>",
		Short: "Move a dead task back into its queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid dead letter id %q: %w", args[0], err)
			}
			if maxRetries < 0 {
				qCfg, err := load[queue.Config]()
				if err != nil {
					return err
				}
				maxRetries = qCfg.MaxRetries
			}
			return withTaskStorage(cmd.Context(), func(s *queue.PostgresStorage) error {
				task, err := s.RequeueDeadLetter(cmd.Context(), id, maxRetries)
				if err != nil {
					return err
				}
				c.log.InfoContext(cmd.Context(), "dead letter requeued",
					logger.TaskID(task.ID),
					logger.TaskName(task.TaskName))
				fmt.Fprintf(cmd.OutOrStdout(), "requeued %s as task %s\n", task.TaskName, task.ID)
				return nil
			})
		},
	}
	requeue.Flags().Int8Var(&maxRetries, "max-retries", -1, "retry budget for the revived task (default QUEUE_MAX_RETRIES)")

	cmd.AddCommand(list, requeue)
	return cmd
}

func withTaskStorage(ctx context.Context, fn func(*queue.PostgresStorage) error) error {
	pgCfg, err := load[pg.Config]()
	if err != nil {
		return err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(queue.NewPostgresStorage(pool, nil))
}

func printDeadLetters(w io.Writer, dead []queue.DeadLetter) error {
	if len(dead) == 0 {
		_, err := fmt.Fprintln(w, "no dead letters")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTASK\tATTEMPTS\tFAILED AT\tERROR")
	for _, d := range dead {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			d.ID, d.TaskName, int(d.RetryCount)+1, d.FailedAt.UTC().Format(time.RFC3339), truncate(d.Error, 80))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
