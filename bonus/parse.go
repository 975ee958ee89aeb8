package bonus

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// UnparsedAbsences marks an absence cell whose input could not be read.
// AbsenceFactor maps it to FallbackAbsenceFactor.
const UnparsedAbsences = -1

// maxCount caps absurdly large counts so they fit in an int.
var maxCount = decimal.NewFromInt(1 << 30)

// MaxExponent bounds the decimal exponent of typed numbers. decimal accepts
// exponents up to 2^31, and rescaling such values does not finish.
const MaxExponent = 12

// ParseDecimal parses s as a decimal and rejects scientific notation that
// lands outside [-MaxExponent, MaxExponent].
func ParseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if e := d.Exponent(); e > MaxExponent || e < -MaxExponent {
		return decimal.Zero, fmt.Errorf("%q: %w", s, ErrNumberOutOfRange)
	}
	return d, nil
}

// ParseDecimalOr parses raw as a decimal. Blank input returns def without
// flagging it; anything unparseable returns def with defaulted=true.
// Accepts a trailing "%" and a comma decimal separator ("12,5").
func ParseDecimalOr(raw string, def decimal.Decimal) (v decimal.Decimal, defaulted bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, false
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := ParseDecimal(s)
	if err != nil {
		return def, true
	}
	return d, false
}

// ParseCountOr parses raw as a non-negative integer count. Integral decimals
// such as "2.0" are accepted. Blank input returns def without flagging it.
func ParseCountOr(raw string, def int) (v int, defaulted bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, false
	}
	d, err := ParseDecimal(s)
	if err != nil || d.IsNegative() || !d.IsInteger() {
		return def, true
	}
	if d.GreaterThan(maxCount) {
		return int(maxCount.IntPart()), false
	}
	return int(d.IntPart()), false
}

// ParsePercent reads a participation cell. Unusable input counts as 0%.
func ParsePercent(raw string) (decimal.Decimal, bool) {
	return ParseDecimalOr(raw, decimal.Zero)
}

// ParseAbsences reads an absence cell. Blank means 0; unusable input
// becomes UnparsedAbsences so it takes the maximal discount.
func ParseAbsences(raw string) (int, bool) {
	if strings.TrimSpace(raw) == "" {
		return 0, false
	}
	return ParseCountOr(raw, UnparsedAbsences)
}
