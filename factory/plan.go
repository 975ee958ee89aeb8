/*
Package factory turns plan documents into session operations.

PURPOSE:
  A plan is a YAML (or JSON) document describing a whole bonus run: the
  process type, the lots with their budgets, and the participation typed for
  each worker. Applying a plan to a session with loaded inputs does in one
  step what the web UI does cell by cell, which makes runs reproducible and
  scriptable from the CLI.

DOCUMENT:
  process: PRODUCCION          # or LEVANTE; accents and case ignored
  lots:
    - id: "211"
      genetics: ROSS           # default ROSS
      budget: "1000"           # default 1000
  entries:
    - dni: "12345678"          # applies to every requester row with this DNI
      lot: "211"
      participation: 50
      absences: 2
    - row: 3                   # 1-based requester row, for rows without DNI
      lot: "211"
      participation: "75%"

  Participation and absences are kept as text and go through the same
  lenient parsing as values typed in the UI. Omitted fields leave the cell
  unchanged.

APPLY:
  Plan.Apply runs inside Session.WithTx: configure (when lots are given),
  open editing, set entries, commit. Any error rolls the session back.

SEE ALSO:
  - session/tx.go: the operations a plan drives
  - bonus/parse.go: lenient cell parsing
*/
package factory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/roster"
	"github.com/warp/bono-engine/session"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// Plan is the document form of a bonus run.
type Plan struct {
	Process string      `yaml:"process,omitempty" json:"process,omitempty"`
	Lots    []LotPlan   `yaml:"lots,omitempty" json:"lots,omitempty"`
	Entries []EntryPlan `yaml:"entries,omitempty" json:"entries,omitempty"`
}

// LotPlan describes one lot.
type LotPlan struct {
	ID       string `yaml:"id" json:"id"`
	Genetics string `yaml:"genetics,omitempty" json:"genetics,omitempty"`
	Budget   string `yaml:"budget,omitempty" json:"budget,omitempty"`
}

// EntryPlan sets one lot cell for a worker, addressed by DNI or by row.
type EntryPlan struct {
	DNI           string  `yaml:"dni,omitempty" json:"dni,omitempty"`
	Row           int     `yaml:"row,omitempty" json:"row,omitempty"`
	Lot           string  `yaml:"lot" json:"lot"`
	Participation *string `yaml:"participation,omitempty" json:"participation,omitempty"`
	Absences      *string `yaml:"absences,omitempty" json:"absences,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidPlan is wrapped by every plan validation error.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrEntryTarget is returned when an entry names both or neither of dni and row.
	ErrEntryTarget = errors.New("entry needs exactly one of dni or row")

	// ErrEntryLot is returned when an entry's lot is not among the plan's lots.
	ErrEntryLot = errors.New("entry lot is not configured")

	// ErrRowOutOfRange is returned when an entry's row does not exist.
	ErrRowOutOfRange = errors.New("row out of range")
)

// EntryError locates a problem in the entries list (1-based).
type EntryError struct {
	Index int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Is reports every EntryError as an ErrInvalidPlan.
func (e *EntryError) Is(target error) bool { return target == ErrInvalidPlan }

// =============================================================================
// PARSING
// =============================================================================

// ParsePlan decodes and validates a plan document.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the plan without touching any session.
func (p *Plan) Validate() error {
	if _, err := bonus.ParseProcessType(p.Process); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}

	var lotIDs map[bonus.LotID]bool
	if len(p.Lots) > 0 {
		lots, err := p.BonusLots()
		if err != nil {
			return err
		}
		lotIDs = make(map[bonus.LotID]bool, len(lots))
		for _, l := range lots {
			lotIDs[l.ID] = true
		}
	}

	for i, e := range p.Entries {
		hasDNI := strings.TrimSpace(e.DNI) != ""
		switch {
		case hasDNI == (e.Row != 0):
			return &EntryError{Index: i + 1, Err: ErrEntryTarget}
		case e.Row < 0:
			return &EntryError{Index: i + 1, Err: ErrRowOutOfRange}
		case hasDNI && !roster.NormalizeID(e.DNI).IsValid():
			return &EntryError{Index: i + 1, Err: fmt.Errorf("dni %q is not a valid DNI", e.DNI)}
		}
		lot := bonus.LotID(strings.TrimSpace(e.Lot))
		if lot == "" {
			return &EntryError{Index: i + 1, Err: bonus.ErrEmptyLotID}
		}
		if lotIDs != nil && !lotIDs[lot] {
			return &EntryError{Index: i + 1, Err: fmt.Errorf("%w: %s", ErrEntryLot, lot)}
		}
	}
	return nil
}

// BonusLots converts the lots section, applying the genetics and budget
// defaults.
func (p *Plan) BonusLots() ([]bonus.Lot, error) {
	lots := make([]bonus.Lot, 0, len(p.Lots))
	for _, lp := range p.Lots {
		genetics := lp.Genetics
		if strings.TrimSpace(genetics) == "" {
			genetics = bonus.DefaultGenetics
		}
		budget := bonus.DefaultBudget
		if strings.TrimSpace(lp.Budget) != "" {
			b, defaulted := bonus.ParseDecimalOr(lp.Budget, decimal.Zero)
			if defaulted {
				return nil, fmt.Errorf("%w: lot %s: budget %q is not a number", ErrInvalidPlan, lp.ID, lp.Budget)
			}
			budget = b
		}
		lots = append(lots, bonus.NewLot(lp.ID, genetics, budget))
	}
	if err := bonus.ValidateLots(lots); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	return lots, nil
}

// =============================================================================
// APPLY
// =============================================================================

// ApplyResult reports what a plan did to a session.
type ApplyResult struct {
	Table   *bonus.Table
	Entries session.EntryResult
	// UnmatchedDNIs lists entry DNIs with no requester row. They are skipped.
	UnmatchedDNIs []roster.ID
}

// Apply runs the plan against s, which must already have inputs loaded.
// The session is left unchanged when any step fails.
func (p *Plan) Apply(s *session.Session) (*ApplyResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var res ApplyResult
	err := s.WithTx(func(tx *session.Tx) error {
		// A process without lots reconfigures the session's current lots.
		if len(p.Lots) > 0 || strings.TrimSpace(p.Process) != "" {
			lots := tx.Lots()
			if len(p.Lots) > 0 {
				var err error
				if lots, err = p.BonusLots(); err != nil {
					return err
				}
			}
			if err := tx.Configure(bonus.ProcessType(p.Process), lots); err != nil {
				return err
			}
		}
		if err := tx.OpenEditing(); err != nil {
			return err
		}

		updates, unmatched, err := p.updates(tx)
		if err != nil {
			return err
		}
		res.UnmatchedDNIs = unmatched

		res.Entries, err = tx.SetEntries(updates)
		if err != nil {
			return err
		}
		res.Table, err = tx.Commit()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// updates resolves each entry to the joined rows it addresses.
func (p *Plan) updates(tx *session.Tx) ([]session.EntryUpdate, []roster.ID, error) {
	n := len(tx.Workers())
	var (
		out       []session.EntryUpdate
		unmatched []roster.ID
	)
	for i, e := range p.Entries {
		lot := bonus.LotID(strings.TrimSpace(e.Lot))

		var rows []int
		if e.Row != 0 {
			if e.Row > n {
				return nil, nil, &EntryError{Index: i + 1, Err: fmt.Errorf("%w: %d > %d", ErrRowOutOfRange, e.Row, n)}
			}
			rows = []int{e.Row - 1}
		} else {
			id := roster.NormalizeID(e.DNI)
			rows = tx.RowsFor(id)
			if len(rows) == 0 {
				unmatched = append(unmatched, id)
				continue
			}
		}

		for _, row := range rows {
			out = append(out, session.EntryUpdate{
				Row:           row,
				Lot:           lot,
				Participation: e.Participation,
				Absences:      e.Absences,
			})
		}
	}
	return out, unmatched, nil
}
