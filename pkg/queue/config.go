package queue

import "time"

// Config holds the worker, scheduler and retry settings.
type Config struct {
	PollInterval       time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"2s"`
	LockTimeout        time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"5m"`
	ShutdownTimeout    time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxConcurrentTasks int           `env:"QUEUE_MAX_CONCURRENT_TASKS" envDefault:"4"`
	SchedulerInterval  time.Duration `env:"QUEUE_SCHEDULER_INTERVAL" envDefault:"30s"`

	// Retry policy: 60s, 120s, 240s and then the dead letter queue.
	MaxRetries           int8          `env:"QUEUE_MAX_RETRIES" envDefault:"3"`
	RetryInitialInterval time.Duration `env:"QUEUE_RETRY_INITIAL_INTERVAL" envDefault:"60s"`
	RetryMaxInterval     time.Duration `env:"QUEUE_RETRY_MAX_INTERVAL" envDefault:"1h"`
}

// Backoff builds the retry policy described by the config.
func (c Config) Backoff() ExponentialBackoff {
	return ExponentialBackoff{
		InitialInterval: c.RetryInitialInterval,
		MaxInterval:     c.RetryMaxInterval,
		Multiplier:      2,
	}
}
