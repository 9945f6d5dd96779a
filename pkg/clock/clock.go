package clock

import (
	"errors"
	"sync"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidTimezone is returned when the configured location cannot be loaded.
var ErrInvalidTimezone = errors.New("clock: invalid timezone")

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// Config selects the location used to decide which calendar day it is.
type Config struct {
	Timezone string `env:"APP_TIMEZONE" envDefault:"UTC"`
}

type systemClock struct {
	loc *time.Location
}

// New returns a wall clock reporting time in loc. Nil loc means UTC.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

// NewFromConfig returns a wall clock for the configured timezone.
func NewFromConfig(cfg Config) (Clock, error) {
	if cfg.Timezone == "" {
		return New(time.UTC), nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errors.Join(ErrInvalidTimezone, err)
	}
	return New(loc), nil
}

func (c systemClock) Now() time.Time { return time.Now().In(c.loc) }

// Mock is a manually driven Clock. Safe for concurrent use.
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMock returns a Mock frozen at t.
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set moves the clock to t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// AdvanceDays moves the clock forward by n calendar days.
func (m *Mock) AdvanceDays(n int) {
	m.mu.Lock()
	m.now = m.now.AddDate(0, 0, n)
	m.mu.Unlock()
}

// Today returns the current calendar date of c.
func Today(c Clock) time.Time {
	return Date(c.Now())
}

// Date strips the time of day from t, keeping the calendar day observed in
// t's own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a calendar date by n days.
func AddDays(d time.Time, n int) time.Time {
	return Date(d).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole days from "from" to "to".
// The result is negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int(Date(to).Sub(Date(from)).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Date(t), nil
}
