package roster

import (
	"regexp"
	"strings"
)

// trailingZeroFraction matches a numeric-to-string artifact like "12345678.0".
var trailingZeroFraction = regexp.MustCompile(`\.0+$`)

// NormalizeID turns any textual DNI into its canonical form.
//
// Steps, in order:
//  1. trim whitespace
//  2. remove apostrophes (spreadsheet text markers)
//  3. remove a trailing ".0" / ".00" fraction
//  4. keep ASCII digits only
//  5. drop surplus leading zeros beyond IDWidth
//  6. left-pad with "0" to IDWidth
//
// Input with no digits, or with more than IDWidth significant digits,
// yields InvalidID. NormalizeID never panics and is idempotent.
func NormalizeID(raw string) ID {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.TrimSpace(s)
	s = trailingZeroFraction.ReplaceAllString(s, "")

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	digits := b.String()
	if digits == "" {
		return InvalidID
	}

	if len(digits) > IDWidth {
		digits = strings.TrimLeft(digits, "0")
		if len(digits) > IDWidth {
			return InvalidID
		}
	}
	return ID(strings.Repeat("0", IDWidth-len(digits)) + digits)
}
