package session

import (
	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/roster"
)

// Tx exposes the session operations while the session lock is held.
// Obtain one through Session.WithTx; never keep it after fn returns.
type Tx struct {
	s *Session
}

func (s *Session) tx() *Tx { return &Tx{s: s} }

// State returns the current state.
func (t *Tx) State() State { return t.s.st.phase }

// Workers returns the joined rows (not a copy).
func (t *Tx) Workers() []roster.JoinedRow {
	if t.s.st.join == nil {
		return nil
	}
	return t.s.st.join.Rows
}

// Stats returns the join counters, zero before LoadInputs.
func (t *Tx) Stats() roster.JoinStats {
	if t.s.st.join == nil {
		return roster.JoinStats{}
	}
	return t.s.st.join.Stats
}

// Process returns the configured process type, empty before Configure.
func (t *Tx) Process() bonus.ProcessType { return t.s.st.process }

// Lots returns a copy of the configured lots.
func (t *Tx) Lots() []bonus.Lot { return append([]bonus.Lot(nil), t.s.st.lots...) }

// LoadInputs: see Session.LoadInputs.
func (t *Tx) LoadInputs(requesters, master roster.Table) (*roster.JoinResult, error) {
	res, err := roster.JoinTables(requesters, master)
	if err != nil {
		return nil, err
	}

	st := &t.s.st
	st.join = res
	st.part = bonus.Participation{}
	st.degraded = make(map[cell]degradedFlags)
	st.table = nil
	if len(st.lots) > 0 {
		st.phase = StateConfigured
	} else {
		st.phase = StateAwaitingInputs
	}
	t.s.touch()
	return res, nil
}

// Configure: see Session.Configure.
func (t *Tx) Configure(process bonus.ProcessType, lots []bonus.Lot) error {
	st := &t.s.st
	if st.join == nil {
		return &TransitionError{From: st.phase, Action: "configure", Err: ErrNoInputs}
	}
	process, err := bonus.ParseProcessType(string(process))
	if err != nil {
		return err
	}
	if err := bonus.ValidateLots(lots); err != nil {
		return err
	}

	keep := make([]bonus.LotID, len(lots))
	for i, l := range lots {
		keep[i] = l.ID
	}
	st.part.Retain(keep)
	for c := range st.degraded {
		if !containsLot(keep, c.lot) {
			delete(st.degraded, c)
		}
	}

	st.process = process
	st.lots = append([]bonus.Lot(nil), lots...)
	st.roles = bonus.RolesFor(process)
	st.table = nil
	st.phase = StateConfigured
	t.s.touch()
	return nil
}

// OpenEditing: see Session.OpenEditing.
func (t *Tx) OpenEditing() error {
	st := &t.s.st
	switch st.phase {
	case StateConfigured, StateEditable, StateComputed, StateExported:
	default:
		return &TransitionError{From: st.phase, Action: "edit", Err: ErrInvalidTransition}
	}

	for row := range st.join.Rows {
		for _, l := range st.lots {
			if _, ok := st.part[row][l.ID]; !ok {
				st.part.Set(row, l.ID, bonus.Entry{})
			}
		}
	}
	st.table = nil
	st.phase = StateEditable
	t.s.touch()
	return nil
}

// EntryUpdate sets one cell. Nil fields are left unchanged. Values are the
// raw text the user typed.
type EntryUpdate struct {
	Row           int
	Lot           bonus.LotID
	Participation *string
	Absences      *string
}

// EntryResult reports what SetEntries did.
type EntryResult struct {
	Applied               int
	DegradedParticipation int
	DegradedAbsences      int
}

// SetEntries: see Session.SetEntries.
func (t *Tx) SetEntries(updates []EntryUpdate) (EntryResult, error) {
	st := &t.s.st
	var res EntryResult
	if st.phase != StateEditable {
		return res, &TransitionError{From: st.phase, Action: "set entries", Err: ErrInvalidTransition}
	}

	lotIDs := make([]bonus.LotID, len(st.lots))
	for i, l := range st.lots {
		lotIDs[i] = l.ID
	}
	for _, u := range updates {
		if u.Row < 0 || u.Row >= len(st.join.Rows) || !containsLot(lotIDs, u.Lot) {
			return res, &CellError{Row: u.Row, Lot: u.Lot}
		}
	}

	for _, u := range updates {
		c := cell{row: u.Row, lot: u.Lot}
		e := st.part.Get(u.Row, u.Lot)
		flags := st.degraded[c]

		if u.Participation != nil {
			var bad bool
			e.Participation, bad = bonus.ParsePercent(*u.Participation)
			flags.participation = bad
			if bad {
				res.DegradedParticipation++
			}
		}
		if u.Absences != nil {
			var bad bool
			e.Absences, bad = bonus.ParseAbsences(*u.Absences)
			flags.absences = bad
			if bad {
				res.DegradedAbsences++
			}
		}

		st.part.Set(u.Row, u.Lot, e)
		if flags.participation || flags.absences {
			st.degraded[c] = flags
		} else {
			delete(st.degraded, c)
		}
		res.Applied++
	}
	t.s.touch()
	return res, nil
}

// RowsFor returns every joined-row position whose normalized ID equals id.
func (t *Tx) RowsFor(id roster.ID) []int {
	var rows []int
	for i, r := range t.Workers() {
		if r.ID == id {
			rows = append(rows, i)
		}
	}
	return rows
}

// Commit: see Session.Commit.
func (t *Tx) Commit() (*bonus.Table, error) {
	st := &t.s.st
	if st.phase != StateEditable {
		return nil, &TransitionError{From: st.phase, Action: "commit", Err: ErrInvalidTransition}
	}

	st.table = bonus.ComputeTable(st.process, st.join.Rows, st.lots, st.part, st.roles)
	st.phase = StateComputed
	t.s.touch()
	return st.table, nil
}

// MarkExported: see Session.MarkExported.
func (t *Tx) MarkExported() (*bonus.Table, error) {
	st := &t.s.st
	switch st.phase {
	case StateComputed, StateExported:
	default:
		return nil, &TransitionError{From: st.phase, Action: "export", Err: ErrInvalidTransition}
	}
	st.phase = StateExported
	t.s.touch()
	return st.table, nil
}

func containsLot(ids []bonus.LotID, id bonus.LotID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
