// Package clock supplies the current time and calendar-date helpers.
//
// Business rules in this service work on calendar dates, not instants. A
// date is represented as a time.Time at midnight UTC carrying the year, month
// and day observed in the clock's location. Use Today to obtain "today" and
// AddDays / DaysBetween for arithmetic so comparisons never drift across
// daylight saving changes.
//
// Production code uses New or NewFromConfig; tests use Mock to pin and move
// time deterministically:
//
//	clk := clock.NewMock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
//	clk.AdvanceDays(30)
//	today := clock.Today(clk) // 2024-01-31
package clock
