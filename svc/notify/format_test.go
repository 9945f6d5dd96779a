package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
)

func TestFormatRupees(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "₹1,500.00", formatRupees(150000))
	assert.Equal(t, "₹12,000.50", formatRupees(1200050))
	assert.Equal(t, "₹0.00", formatRupees(0))
	assert.Equal(t, "Rs. 4,000.00", formatRupeesPlain(400000))
}

func TestFormatValidity(t *testing.T) {
	t.Parallel()
	tests := map[int]string{
		1:   "1 day",
		15:  "15 days",
		30:  "1 month",
		90:  "3 months",
		95:  "3 months and 5 days",
		365: "1 year",
		400: "1 year and 35 days",
		730: "2 years",
	}
	for days, want := range tests {
		assert.Equal(t, want, formatValidity(days), "days=%d", days)
	}
}

func TestFormatDate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "05 March 2024", formatDate(clock.NewDate(2024, 3, 5)))
}
