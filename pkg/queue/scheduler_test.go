package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
)

func TestCronSchedule(t *testing.T) {
	t.Parallel()

	s, err := queue.CronSchedule("30 2 * * *")
	require.NoError(t, err)

	from := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 2, 2, 30, 0, 0, time.UTC), s.Next(from))
	assert.Equal(t, "cron 30 2 * * *", s.String())

	_, err = queue.CronSchedule("not a cron")
	assert.ErrorIs(t, err, queue.ErrInvalidSchedule)
}

func TestDailyAt(t *testing.T) {
	t.Parallel()

	s := queue.DailyAt(9, 0)
	assert.Equal(t,
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		s.Next(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		s.Next(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
}

func TestScheduler_Tick(t *testing.T) {
	t.Parallel()

	clk := clock.NewMock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	storage := queue.NewMemoryStorage(clk)
	s, err := queue.NewScheduler(storage, queue.WithSchedulerClock(clk), queue.WithSchedulerLogger(logger.Discard()))
	require.NoError(t, err)

	require.NoError(t, s.AddTask("membership.expire", queue.Every(time.Hour)))
	assert.ErrorIs(t, s.AddTask("membership.expire", queue.Every(time.Hour)), queue.ErrTaskAlreadyRegistered)

	s.Tick(context.Background())
	s.Tick(context.Background())

	tasks := storage.Tasks()
	require.Len(t, tasks, 1, "one outstanding instance per task")
	assert.Equal(t, queue.TaskTypePeriodic, tasks[0].TaskType)
	assert.Equal(t, clk.Now().Add(time.Hour), tasks[0].ScheduledAt)

	w, err := queue.NewWorker(storage, queue.WithWorkerClock(clk), queue.WithWorkerLogger(logger.Discard()))
	require.NoError(t, err)
	runs := 0
	w.RegisterHandlers(queue.NewPeriodicTaskHandler("membership.expire", func(context.Context) error {
		runs++
		return nil
	}))

	clk.Advance(time.Hour)
	processed, err := w.ProcessNext(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	assert.Equal(t, 1, runs)

	s.Tick(context.Background())
	pending, err := storage.GetPendingTaskByName(context.Background(), "membership.expire")
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), pending.ScheduledAt)
}

func TestScheduler_RunWithoutTasks(t *testing.T) {
	t.Parallel()

	s, err := queue.NewScheduler(queue.NewMemoryStorage(nil))
	require.NoError(t, err)
	assert.ErrorIs(t, s.Run(context.Background())(), queue.ErrSchedulerNotConfigured)
}
