package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
)

func TestToday_UsesClockLocation(t *testing.T) {
	t.Parallel()

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 2024-01-31 20:00 UTC is already 2024-02-01 in Kolkata.
	instant := time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC).In(kolkata)
	clk := clock.NewMock(instant)

	assert.Equal(t, clock.NewDate(2024, 2, 1), clock.Today(clk))
}

func TestMock(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMock(start)
	assert.Equal(t, start, clk.Now())

	clk.AdvanceDays(30)
	assert.Equal(t, clock.NewDate(2024, 1, 31), clock.Today(clk))

	clk.Advance(14 * time.Hour)
	assert.Equal(t, clock.NewDate(2024, 2, 1), clock.Today(clk))

	clk.Set(start)
	assert.Equal(t, start, clk.Now())
}

func TestDateArithmetic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from time.Time
		days int
		want time.Time
	}{
		{"thirty days", clock.NewDate(2024, 1, 1), 30, clock.NewDate(2024, 1, 31)},
		{"leap year", clock.NewDate(2024, 1, 1), 365, clock.NewDate(2024, 12, 31)},
		{"backwards", clock.NewDate(2024, 3, 1), -1, clock.NewDate(2024, 2, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := clock.AddDays(tt.from, tt.days)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.days, clock.DaysBetween(tt.from, got))
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := clock.ParseDate("2024-02-05")
	require.NoError(t, err)
	assert.Equal(t, clock.NewDate(2024, 2, 5), d)

	_, err = clock.ParseDate("05/02/2024")
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	clk, err := clock.NewFromConfig(clock.Config{Timezone: "Asia/Kolkata"})
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", clk.Now().Location().String())

	_, err = clock.NewFromConfig(clock.Config{Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, clock.ErrInvalidTimezone)
}
