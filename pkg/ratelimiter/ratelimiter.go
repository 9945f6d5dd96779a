package ratelimiter

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// Config defines the per-key token bucket.
type Config struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	// Rate is the steady number of requests per second a key may make.
	Rate float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	// Burst is the bucket capacity.
	Burst   int           `env:"RATE_LIMIT_BURST" envDefault:"30"`
	MaxKeys int           `env:"RATE_LIMIT_MAX_KEYS" envDefault:"10000"`
	IdleTTL time.Duration `env:"RATE_LIMIT_IDLE_TTL" envDefault:"10m"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.Rate <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive"))
	}
	if c.Burst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be positive"))
	}
	if c.MaxKeys <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_KEYS must be positive"))
	}
	if len(errs) > 0 {
		return errors.Join(ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Result contains the outcome of a single check.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	Allowed   bool
}

// RetryAfter is how long a denied caller should wait. Zero when allowed.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

type Limiter struct {
	limit   rate.Limit
	burst   int
	now     func() time.Time
	mu      sync.Mutex
	buckets *expirable.LRU[string, *rate.Limiter]
}

type Option func(*Limiter)

// WithTimeFunc replaces time.Now, mainly for tests.
func WithTimeFunc(fn func() time.Time) Option {
	return func(l *Limiter) {
		if fn != nil {
			l.now = fn
		}
	}
}

func New(cfg Config, opts ...Option) (*Limiter, error) {
	cfg.Enabled = true
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	l := &Limiter{
		limit:   rate.Limit(cfg.Rate),
		burst:   cfg.Burst,
		now:     time.Now,
		buckets: expirable.NewLRU[string, *rate.Limiter](cfg.MaxKeys, nil, ttl),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow takes one token from the bucket of key.
func (l *Limiter) Allow(key string) Result {
	now := l.now()
	b := l.bucket(key)

	res := b.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	if !res.OK() || delay > 0 {
		res.CancelAt(now)
		return Result{
			Limit:     l.burst,
			Remaining: 0,
			ResetAt:   now.Add(delay),
			Allowed:   false,
		}
	}

	tokens := b.TokensAt(now)
	remaining := int(math.Max(0, math.Floor(tokens)))
	missing := float64(l.burst) - tokens
	full := now
	if missing > 0 {
		full = now.Add(time.Duration(missing / float64(l.limit) * float64(time.Second)))
	}
	return Result{
		Limit:     l.burst,
		Remaining: remaining,
		ResetAt:   full,
		Allowed:   true,
	}
}

// Reset forgets the bucket of key.
func (l *Limiter) Reset(key string) {
	l.buckets.Remove(key)
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets.Get(key); ok {
		return b
	}
	b := rate.NewLimiter(l.limit, l.burst)
	l.buckets.Add(key, b)
	return b
}
