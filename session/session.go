/*
Package session holds the mutable state of one bonus run and enforces its
state machine.

PURPOSE:
  The roster and bonus engines are pure. Everything the user changes over
  time (uploaded tables, lot configuration, typed participation) lives in a
  Session, which feeds those engines explicit inputs and keeps the derived
  payout table consistent with them.

STATE MACHINE:
  AWAITING_INPUTS --LoadInputs+Configure--> CONFIGURED
  CONFIGURED --OpenEditing--> EDITABLE
  EDITABLE   --SetEntries--> EDITABLE
  EDITABLE   --Commit-----> COMPUTED
  COMPUTED   --MarkExported--> EXPORTED
  COMPUTED/EXPORTED --OpenEditing--> EDITABLE   (table discarded)
  any --LoadInputs/Configure--> back to CONFIGURED (or AWAITING_INPUTS)

  There is no terminal state. The payout table only exists in COMPUTED and
  EXPORTED, and is always rebuilt from scratch by Commit.

CONCURRENCY:
  One user drives a session, but HTTP requests may overlap. Every method
  takes the session mutex; WithTx runs several steps under one lock and
  rolls back on error.

SEE ALSO:
  - store.go: in-memory Store of sessions
  - errors.go: transition and cell errors
  - bonus/table.go: ComputeTable
*/
package session

import (
	"sync"
	"time"

	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/roster"
)

// =============================================================================
// STATES
// =============================================================================

// State is a step of the bonus workflow.
type State string

const (
	StateAwaitingInputs State = "AWAITING_INPUTS"
	StateConfigured     State = "CONFIGURED"
	StateEditable       State = "EDITABLE"
	StateComputed       State = "COMPUTED"
	StateExported       State = "EXPORTED"
)

// ID identifies a session.
type ID string

// =============================================================================
// SESSION
// =============================================================================

// Session is one user's bonus run.
type Session struct {
	mu sync.Mutex

	id        ID
	createdAt time.Time
	updatedAt time.Time

	st    state
	clock func() time.Time
}

// state is the copyable part of a Session, so WithTx can snapshot it.
type state struct {
	phase    State
	join     *roster.JoinResult
	process  bonus.ProcessType
	lots     []bonus.Lot
	roles    bonus.RoleTable
	part     bonus.Participation
	degraded map[cell]degradedFlags
	table    *bonus.Table
}

type cell struct {
	row int
	lot bonus.LotID
}

type degradedFlags struct {
	participation bool
	absences      bool
}

// New creates an empty session waiting for inputs.
func New(id ID, now time.Time) *Session {
	return &Session{
		id:        id,
		createdAt: now,
		updatedAt: now,
		clock:     time.Now,
		st: state{
			phase:    StateAwaitingInputs,
			process:  bonus.ProcessProduction,
			part:     bonus.Participation{},
			degraded: make(map[cell]degradedFlags),
		},
	}
}

// ID returns the session ID.
func (s *Session) ID() ID { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.phase
}

func (s *Session) touch() { s.updatedAt = s.clock() }

// idleSince returns the last update time. ok is false while another
// goroutine holds the session, which counts as activity.
func (s *Session) idleSince() (t time.Time, ok bool) {
	if !s.mu.TryLock() {
		return time.Time{}, false
	}
	defer s.mu.Unlock()
	return s.updatedAt, true
}

// =============================================================================
// OPERATIONS
// =============================================================================

// LoadInputs validates and joins the uploaded tables. Allowed in any state.
// Participation and any computed table are discarded because row positions
// changed. With lots already configured the session lands in CONFIGURED,
// otherwise in AWAITING_INPUTS.
func (s *Session) LoadInputs(requesters, master roster.Table) (*roster.JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().LoadInputs(requesters, master)
}

// Configure sets the process type and lots. Requires loaded inputs.
func (s *Session) Configure(process bonus.ProcessType, lots []bonus.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().Configure(process, lots)
}

// OpenEditing enters EDITABLE and discards any computed table.
func (s *Session) OpenEditing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().OpenEditing()
}

// SetEntries applies typed cell values. All updates are validated before
// any is applied.
func (s *Session) SetEntries(updates []EntryUpdate) (EntryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().SetEntries(updates)
}

// Commit recomputes the payout table from scratch and enters COMPUTED.
func (s *Session) Commit() (*bonus.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().Commit()
}

// MarkExported records that the current table was handed to export and
// returns that table.
func (s *Session) MarkExported() (*bonus.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx().MarkExported()
}

// WithTx runs fn with the session locked. If fn returns an error, every
// change made through tx is rolled back.
func (s *Session) WithTx(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	updated := s.updatedAt
	if err := fn(s.tx()); err != nil {
		s.st = snapshot
		s.updatedAt = updated
		return err
	}
	return nil
}

func (st state) clone() state {
	out := st
	out.lots = append([]bonus.Lot(nil), st.lots...)
	out.part = bonus.Participation{}
	for row, m := range st.part {
		for lot, e := range m {
			out.part.Set(row, lot, e)
		}
	}
	out.degraded = make(map[cell]degradedFlags, len(st.degraded))
	for k, v := range st.degraded {
		out.degraded[k] = v
	}
	return out
}

// =============================================================================
// READ MODELS
// =============================================================================

// Summary is a point-in-time copy of the session's headline data.
type Summary struct {
	ID                    ID
	State                 State
	CreatedAt             time.Time
	UpdatedAt             time.Time
	HasInputs             bool
	Stats                 roster.JoinStats
	Process               bonus.ProcessType
	Lots                  []bonus.Lot
	DegradedParticipation int
	DegradedAbsences      int
	HasTable              bool
}

// Summary returns a copy of the session's headline data.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		ID:        s.id,
		State:     s.st.phase,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
		HasInputs: s.st.join != nil,
		Process:   s.st.process,
		Lots:      append([]bonus.Lot(nil), s.st.lots...),
		HasTable:  s.st.table != nil,
	}
	if s.st.join != nil {
		sum.Stats = s.st.join.Stats
	}
	for _, f := range s.st.degraded {
		if f.participation {
			sum.DegradedParticipation++
		}
		if f.absences {
			sum.DegradedAbsences++
		}
	}
	return sum
}

// Workers returns a copy of the joined rows, or nil before LoadInputs.
func (s *Session) Workers() []roster.JoinedRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.join == nil {
		return nil
	}
	return append([]roster.JoinedRow(nil), s.st.join.Rows...)
}

// Entry returns the entry for (row, lot).
func (s *Session) Entry(row int, lot bonus.LotID) bonus.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.part.Get(row, lot)
}

// Table returns the computed table, or nil outside COMPUTED/EXPORTED.
// The returned table is never mutated afterwards.
func (s *Session) Table() *bonus.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.table
}

// Roles returns the active role table.
func (s *Session) Roles() bonus.RoleTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bonus.RolesFor(s.st.process)
}
