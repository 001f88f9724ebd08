// Package normalize turns free-form guest input into comparable keys.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Phone reduces a phone number to its digits and drops one dialing prefix:
// "00" (international) or, failing that, a single leading "0" (trunk).
// Country codes are not validated, so two numbers that share the same digit
// suffix after stripping compare equal.
func Phone(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, "00") {
		return digits[2:]
	}
	return strings.TrimPrefix(digits, "0")
}

// Name builds a comparison key that ignores case, accents, internal spacing,
// hyphens and apostrophes: "Jéan-Paul" and "jean paul" both give "jeanpaul".
func Name(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(strings.TrimSpace(raw))
	s = norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
		case r == '-' || r == '\'':
		case unicode.IsSpace(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Handle normalizes a messaging username: trimmed, lowercased, without a
// leading "@".
func Handle(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimPrefix(s, "@")
}
