package main

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/gymcrm/pkg/config"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
)

// jobsConfig schedules the daily membership jobs. Schedules are standard
// five field cron expressions in the application timezone.
type jobsConfig struct {
	ExpireSweep     string `env:"JOB_EXPIRE_SWEEP_SCHEDULE" envDefault:"5 0 * * *"`
	ExpiryReminders string `env:"JOB_EXPIRY_REMINDERS_SCHEDULE" envDefault:"0 9 * * *"`
	ReminderDays    []int  `env:"JOB_REMINDER_DAYS" envSeparator:"," envDefault:"7,3,1"`
}

func (c jobsConfig) Validate() error {
	for _, spec := range []string{c.ExpireSweep, c.ExpiryReminders} {
		if _, err := queue.CronSchedule(spec); err != nil {
			return fmt.Errorf("schedule %q: %w", spec, err)
		}
	}
	for _, d := range c.ReminderDays {
		if d <= 0 {
			return errors.New("reminder days must be positive")
		}
	}
	return nil
}

type metricsConfig struct {
	Namespace string `env:"METRICS_NAMESPACE" envDefault:"gymcrm"`
}

// load parses one configuration section.
func load[T any]() (T, error) {
	var cfg T
	if err := config.Load(&cfg); err != nil {
		var zero T
		return zero, err
	}
	return cfg, nil
}
