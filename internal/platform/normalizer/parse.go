package normalizer

import (
	"strings"
	"time"
	"unicode"
)

// Fallible parsing helpers. The reference implementation swallowed parse
// exceptions; here every helper returns an ok bool and callers skip the
// rule (recording a warning) when it is false.

// parseDateTime parses a 14-digit YYYYMMDDHHMMSS value in local time.
func parseDateTime(s string) (time.Time, bool) {
	if len(s) < 14 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("20060102150405", s[:14], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseDate parses an 8-digit YYYYMMDD value.
func parseDate(s string) (time.Time, bool) {
	if len(s) < 8 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("20060102", s[:8], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// toE164 converts a free-form phone value to E.164. The rule is fixed:
// strip non-digits; exactly 10 digits get a +1 country prefix; a raw value
// already starting with + is kept verbatim; anything else gets a bare +.
func toE164(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	stripped := digits.String()
	switch {
	case stripped == "":
		return ""
	case len(stripped) == 10:
		return "+1" + stripped
	case strings.HasPrefix(raw, "+"):
		return raw
	default:
		return "+" + stripped
	}
}

// allDigits reports whether s is non-empty and contains only ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// digitsAndHyphens reports whether s is non-empty and contains only digits
// and hyphens (the shape of an OMB race category code).
func digitsAndHyphens(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}
