/*
Package roster normalizes national IDs (DNI) and joins a requester list
against the master worker roster.

PURPOSE:
  The two uploaded spreadsheets encode the same 8-digit DNI in many ways:
  leading apostrophes from "text" cells, a trailing ".0" from numeric
  cells, stripped leading zeros, stray punctuation and whitespace. This
  package turns each of them into one canonical key and performs a
  deterministic left join on it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Table: a raw header + rows grid, as read by package sheet
  - ID: canonical 8-digit DNI, or InvalidID
  - Worker: one master roster row (ID, full name, job role)
  - Requester: one row of the requester list
  - JoinedRow: a requester row after the join, with a MatchStatus

INVARIANTS:
  1. Every valid ID is exactly 8 ASCII digits.
  2. Join output has one row per requester row, in requester order.
  3. Roster duplicates resolve to the first occurrence in file order.

SEE ALSO:
  - identifier.go: NormalizeID
  - columns.go: header matching and table shape validation
  - join.go: Deduplicate, Join, JoinTables
*/
package roster

// =============================================================================
// RAW TABLE
// =============================================================================

// Table is a rectangular-ish grid of strings with a header row.
// Rows may be ragged; missing cells read as "".
type Table struct {
	Headers []string
	Rows    [][]string
	// Lines holds the 1-based source line of each row when the reader
	// knows it. Nil means rows follow the header with no gaps.
	Lines []int
}

// Cell returns the value at (row, col), or "" when out of range.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Line returns the 1-based source line of data row i.
func (t Table) Line(i int) int {
	if i >= 0 && i < len(t.Lines) && t.Lines[i] > 0 {
		return t.Lines[i]
	}
	return i + 2
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ID is a canonical national ID: 8 digits, zero-padded.
type ID string

// InvalidID marks an input that carried no usable digits.
// It is deliberately distinct from "00000000".
const InvalidID ID = ""

// IDWidth is the fixed width of a canonical ID.
const IDWidth = 8

// IsValid reports whether id is a canonical 8-digit ID.
func (id ID) IsValid() bool {
	if len(id) != IDWidth {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

func (id ID) String() string { return string(id) }

// =============================================================================
// ROWS
// =============================================================================

// Worker is one master roster row. Never mutated after load.
type Worker struct {
	Row   int // 0-based data row in the uploaded file
	RawID string
	ID    ID
	Name  string
	Role  string
}

// Requester is one row of the requester list.
type Requester struct {
	Row   int
	Line  int // 1-based line in the uploaded file
	RawID string
	ID    ID
}

// MatchStatus tells whether a requester row was found in the roster.
type MatchStatus string

const (
	StatusFound    MatchStatus = "FOUND"
	StatusNotFound MatchStatus = "NOT_FOUND"
)

// JoinedRow is a requester row expanded with roster data.
// Name and Role are empty when Status is StatusNotFound.
type JoinedRow struct {
	Row    int
	Line   int
	RawID  string
	ID     ID
	Name   string
	Role   string
	Status MatchStatus
}

// Found reports whether the row matched a roster worker.
func (r JoinedRow) Found() bool { return r.Status == StatusFound }
