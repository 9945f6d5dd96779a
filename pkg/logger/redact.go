package logger

import (
	"log/slog"
	"strings"
)

// DefaultRedactedKeys are attribute keys that carry member contact details.
var DefaultRedactedKeys = []string{"phone", "phone_number", "email", "to"}

// Phone logs a phone number with all but the last four digits masked.
func Phone(key, number string) slog.Attr {
	return slog.String(key, MaskPhone(number))
}

// MaskPhone keeps the last four characters, enough to tell members apart at
// the front desk.
func MaskPhone(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return s
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

// MaskEmail keeps the first letter of the local part and the domain.
func MaskEmail(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok {
		return MaskPhone(s)
	}
	if local == "" {
		return "*@" + domain
	}
	return string([]rune(local)[0]) + "***@" + domain
}

// redactor masks string attributes whose key is in keys, at any group depth.
func redactor(keys []string) func([]string, slog.Attr) slog.Attr {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(strings.ToLower(k)); k != "" {
			set[k] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return func(_ []string, a slog.Attr) slog.Attr {
		if _, ok := set[strings.ToLower(a.Key)]; !ok {
			return a
		}
		v := a.Value.Resolve()
		if v.Kind() != slog.KindString {
			return a
		}
		s := v.String()
		if strings.Contains(s, "@") {
			return slog.String(a.Key, MaskEmail(s))
		}
		return slog.String(a.Key, MaskPhone(s))
	}
}
