package whatsapp

import "strings"

// NormalizeIndianPhone converts a locally written Indian mobile number into
// E.164 form. Separators are dropped, a trunk 0 is removed and the +91
// country code is added when missing:
//
//	"098765 43210"   -> "+919876543210"
//	"91-9876543210"  -> "+919876543210"
//	"+91 98765 43210" -> "+919876543210"
func NormalizeIndianPhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return "+" + digits, nil
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", ErrInvalidPhone
	}
	return "+91" + digits, nil
}
