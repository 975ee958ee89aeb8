package bonus

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ClampParticipation limits pct to [0, 100] and reports whether it moved.
func ClampParticipation(pct decimal.Decimal) (decimal.Decimal, bool) {
	if pct.IsNegative() {
		return decimal.Zero, true
	}
	if pct.GreaterThan(hundred) {
		return hundred, true
	}
	return pct, false
}

// Payout computes one (worker, lot) cell:
//
//	share(role) * budget * pct/100 * AbsenceFactor(absences)
//
// rounded half-up to 2 decimals. Non-positive participation pays 0.00
// without looking at anything else; participation above 100 is clamped.
// An unknown role or a negative budget pays 0.00.
func (t RoleTable) Payout(role string, budget, pct decimal.Decimal, absences int) decimal.Decimal {
	if !pct.IsPositive() {
		return decimal.Zero
	}
	if budget.IsNegative() {
		return decimal.Zero
	}
	pct, _ = ClampParticipation(pct)

	s, _ := t.Share(role)
	amount := s.Mul(budget).Mul(pct).Div(hundred).Mul(AbsenceFactor(absences))
	return roundMoney(amount)
}

// roundMoney rounds half away from zero to cents; payouts are never
// negative so this is half-up.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
