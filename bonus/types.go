/*
Package bonus computes the production bonus ("bono") per worker and lot.

PURPOSE:
  Given the joined worker list from package roster, a set of configured
  lots and the participation/absence entries typed in by the user, this
  package derives a payout for every (worker, lot) cell and a total per
  worker. Everything here is a pure function of its arguments: no globals,
  no I/O, no logging.

KEY CONCEPTS IN THIS FILE (types.go):
  - ProcessType: PRODUCCION or LEVANTE, selects the role table
  - Lot: a production batch with a genetics tag and a money budget
  - Entry: participation % and absence count for one (row, lot) cell
  - Participation: the sparse matrix of entries, keyed by row and lot

FORMULA:
  payout = share(role) * budget * (participation / 100) * factor(absences)
  rounded half-up to 2 decimals; participation <= 0 pays 0.00.

PRECISION:
  All money and percentages are decimal.Decimal. Rounding happens once,
  per cell, after the full product.

SEE ALSO:
  - rules.go: role tables and absence curve
  - parse.go: lenient parsing of user-typed values
  - payout.go: single-cell payout
  - table.go: full payout table
*/
package bonus

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/bono-engine/roster"
)

// =============================================================================
// PROCESS TYPE
// =============================================================================

// ProcessType is the production phase the bonus is paid for.
type ProcessType string

const (
	ProcessProduction ProcessType = "PRODUCCION"
	ProcessRearing    ProcessType = "LEVANTE"
)

// ProcessTypes lists the accepted process types in display order.
var ProcessTypes = []ProcessType{ProcessProduction, ProcessRearing}

// ParseProcessType accepts any casing and accents ("Producción").
// An empty string selects ProcessProduction.
func ParseProcessType(s string) (ProcessType, error) {
	key := strings.ToUpper(strings.TrimSpace(roster.FoldAccents(s)))
	switch key {
	case "", string(ProcessProduction):
		return ProcessProduction, nil
	case string(ProcessRearing):
		return ProcessRearing, nil
	}
	return "", &ProcessTypeError{Value: s}
}

// =============================================================================
// LOTS
// =============================================================================

// LotID is the user-facing lot label, e.g. "211".
type LotID string

// Lot is one configured production lot.
type Lot struct {
	ID       LotID
	Genetics string
	Budget   decimal.Decimal
}

// Defaults applied when a lot is configured without explicit values.
const (
	DefaultGenetics = "ROSS"
	DefaultLots     = "211-212-213"
)

// DefaultBudget is the budget a new lot starts with.
var DefaultBudget = decimal.NewFromInt(1000)

// NewLot builds a lot with the genetics tag upper-cased and trimmed.
func NewLot(id string, genetics string, budget decimal.Decimal) Lot {
	return Lot{
		ID:       LotID(strings.TrimSpace(id)),
		Genetics: strings.ToUpper(strings.TrimSpace(genetics)),
		Budget:   budget,
	}
}

// Validate checks a single lot.
func (l Lot) Validate() error {
	if l.ID == "" {
		return &LotError{Lot: l.ID, Err: ErrEmptyLotID}
	}
	if l.Budget.IsNegative() {
		return &LotError{Lot: l.ID, Err: ErrNegativeBudget}
	}
	return nil
}

// ValidateLots checks every lot and rejects empty or duplicated lists.
func ValidateLots(lots []Lot) error {
	if len(lots) == 0 {
		return ErrNoLots
	}
	seen := make(map[LotID]struct{}, len(lots))
	for _, l := range lots {
		if err := l.Validate(); err != nil {
			return err
		}
		if _, dup := seen[l.ID]; dup {
			return &LotError{Lot: l.ID, Err: ErrDuplicateLot}
		}
		seen[l.ID] = struct{}{}
	}
	return nil
}

// ParseLotIDs splits a "211-212-213" style list. Blank tokens are skipped;
// duplicates are rejected.
func ParseLotIDs(text string) ([]LotID, error) {
	var ids []LotID
	seen := make(map[LotID]struct{})
	for _, tok := range strings.Split(text, "-") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id := LotID(tok)
		if _, dup := seen[id]; dup {
			return nil, &LotError{Lot: id, Err: ErrDuplicateLot}
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, ErrNoLots
	}
	return ids, nil
}

// =============================================================================
// PARTICIPATION MATRIX
// =============================================================================

// Entry is what the user typed for one (worker row, lot) cell.
type Entry struct {
	Participation decimal.Decimal // percent, 0..100
	Absences      int             // UnparsedAbsences when the input was unusable
}

// Participation holds entries keyed by joined-row position, then lot.
// Missing cells read as the zero Entry (0%, 0 absences).
type Participation map[int]map[LotID]Entry

// Get returns the entry for (row, lot).
func (p Participation) Get(row int, lot LotID) Entry {
	return p[row][lot]
}

// Set stores the entry for (row, lot).
func (p Participation) Set(row int, lot LotID, e Entry) {
	m, ok := p[row]
	if !ok {
		m = make(map[LotID]Entry)
		p[row] = m
	}
	m[lot] = e
}

// Retain drops every lot not in keep.
func (p Participation) Retain(keep []LotID) {
	allowed := make(map[LotID]struct{}, len(keep))
	for _, id := range keep {
		allowed[id] = struct{}{}
	}
	for _, m := range p {
		for lot := range m {
			if _, ok := allowed[lot]; !ok {
				delete(m, lot)
			}
		}
	}
}
