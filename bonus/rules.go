package bonus

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/bono-engine/roster"
)

// =============================================================================
// ROLE SHARES
// =============================================================================

// RoleTable maps a normalized job role to its share of a lot budget.
type RoleTable map[string]decimal.Decimal

func share(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var productionRoles = RoleTable{
	"GALPONERO":          share("1.00"),
	"AYUDANTE GALPONERO": share("0.125"),
	"VOLANTE DESCANSERO": share("0.125"),
	"VOLANTE ALIMENTO":   share("0.125"),
	"BIOSEGURIDAD":       share("0.0625"),
	"GUARDIANES":         share("0.0625"),
	"CAPORAL":            share("0.125"),
	"SUPERVISOR":         share("1.00"),
	"MANTENIMIENTO":      share("0"),
	"GRADING":            share("0.08"),
	"VACUNADORES":        share("0.07"),
}

// Rearing (LEVANTE) currently pays exactly like production.
var rearingRoles = productionRoles.clone()

// RolesFor returns a copy of the role table for the process type.
// Unknown process types get the production table.
func RolesFor(p ProcessType) RoleTable {
	if p == ProcessRearing {
		return rearingRoles.clone()
	}
	return productionRoles.clone()
}

func (t RoleTable) clone() RoleTable {
	out := make(RoleTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// NormalizeRole upper-cases, trims, folds accents and collapses spaces.
func NormalizeRole(role string) string {
	return strings.Join(strings.Fields(strings.ToUpper(roster.FoldAccents(role))), " ")
}

// Share returns the share for role. Unknown roles get zero and ok=false;
// that is a normal outcome, not an error.
func (t RoleTable) Share(role string) (decimal.Decimal, bool) {
	s, ok := t[NormalizeRole(role)]
	if !ok {
		return decimal.Zero, false
	}
	return s, true
}

// Roles returns the role names sorted by share (descending), then name.
func (t RoleTable) Roles() []string {
	names := make([]string, 0, len(t))
	for k := range t {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := t[names[i]], t[names[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return names[i] < names[j]
	})
	return names
}

// =============================================================================
// ABSENCE DISCOUNT
// =============================================================================

// absenceCurve maps 0..4 unexcused absences to a payout factor.
var absenceCurve = []decimal.Decimal{
	share("1.00"),
	share("0.90"),
	share("0.80"),
	share("0.70"),
	share("0.60"),
}

// FallbackAbsenceFactor applies to 5+ absences and to unusable input.
var FallbackAbsenceFactor = share("0.50")

// AbsenceFactor returns the multiplicative discount for n absences.
// Negative n (including UnparsedAbsences) gets the fallback factor.
func AbsenceFactor(n int) decimal.Decimal {
	if n >= 0 && n < len(absenceCurve) {
		return absenceCurve[n]
	}
	return FallbackAbsenceFactor
}

// AbsenceFactorOf parses raw and returns its factor.
func AbsenceFactorOf(raw string) decimal.Decimal {
	n, _ := ParseAbsences(raw)
	return AbsenceFactor(n)
}
