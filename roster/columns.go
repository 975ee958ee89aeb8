package roster

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// COLUMN DEFINITIONS
// =============================================================================

// Column describes a logical column and the headers accepted for it.
type Column struct {
	Name    string
	Aliases []string
}

var (
	ColumnID = Column{
		Name:    "DNI",
		Aliases: []string{"DNI", "NRO DNI", "N DNI", "DOCUMENTO", "NRO DOCUMENTO", "NUMERO DE DOCUMENTO"},
	}
	ColumnName = Column{
		Name:    "NOMBRE COMPLETO",
		Aliases: []string{"NOMBRE COMPLETO", "NOMBRES Y APELLIDOS", "APELLIDOS Y NOMBRES", "TRABAJADOR"},
	}
	ColumnRole = Column{
		Name:    "CARGO",
		Aliases: []string{"CARGO", "PUESTO"},
	}
)

// NormalizeHeader upper-cases, trims, folds accents and collapses inner
// whitespace, so "  Nro. Dni " and "NRO DNI" compare equal.
func NormalizeHeader(h string) string {
	s := FoldAccents(h)
	s = strings.ToUpper(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', '-', ':', '°', 'º':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// FoldAccents strips combining marks: "PRODUCCIÓN" -> "PRODUCCION".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Find returns the index of the first header matching c, or -1.
func (t Table) Find(c Column) int {
	for i, h := range t.Headers {
		nh := NormalizeHeader(h)
		for _, alias := range c.Aliases {
			if nh == alias {
				return i
			}
		}
	}
	return -1
}

// =============================================================================
// SHAPE VALIDATION
// =============================================================================

// ParseRequesters reads the requester list. Only the ID column is required;
// every other column is ignored.
func ParseRequesters(t Table) ([]Requester, error) {
	col := t.Find(ColumnID)
	if col < 0 {
		return nil, &MissingColumnError{Table: TableRequesters, Column: ColumnID.Name, Headers: t.Headers}
	}

	out := make([]Requester, len(t.Rows))
	for i := range t.Rows {
		raw := t.Cell(i, col)
		out[i] = Requester{Row: i, Line: t.Line(i), RawID: raw, ID: NormalizeID(raw)}
	}
	return out, nil
}

// ParseRoster reads the master roster. ID, full name and role columns are
// required; extra columns are ignored.
func ParseRoster(t Table) ([]Worker, error) {
	cols := make([]int, 3)
	for i, c := range []Column{ColumnID, ColumnName, ColumnRole} {
		cols[i] = t.Find(c)
		if cols[i] < 0 {
			return nil, &MissingColumnError{Table: TableRoster, Column: c.Name, Headers: t.Headers}
		}
	}

	out := make([]Worker, len(t.Rows))
	for i := range t.Rows {
		raw := t.Cell(i, cols[0])
		out[i] = Worker{
			Row:   i,
			RawID: raw,
			ID:    NormalizeID(raw),
			Name:  strings.TrimSpace(t.Cell(i, cols[1])),
			Role:  strings.TrimSpace(t.Cell(i, cols[2])),
		}
	}
	return out, nil
}
