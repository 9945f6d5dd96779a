package notify

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const displayDate = "02 January 2006"

var printer = message.NewPrinter(language.English)

// formatRupees renders paise as "₹1,500.00".
func formatRupees(paise int64) string {
	return printer.Sprintf("₹%.2f", float64(paise)/100)
}

// formatRupeesPlain is formatRupees for fonts without the rupee glyph.
func formatRupeesPlain(paise int64) string {
	return printer.Sprintf("Rs. %.2f", float64(paise)/100)
}

func formatDate(t time.Time) string {
	return t.Format(displayDate)
}

// formatValidity describes a plan length in years or months with the
// leftover days, e.g. "1 year" or "3 months and 5 days".
func formatValidity(days int) string {
	switch {
	case days >= 365:
		return withRemainder(days/365, "year", days%365)
	case days >= 30:
		return withRemainder(days/30, "month", days%30)
	default:
		return plural(days, "day")
	}
}

func withRemainder(n int, unit string, rest int) string {
	if rest == 0 {
		return plural(n, unit)
	}
	return fmt.Sprintf("%s and %d days", plural(n, unit), rest)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
