package roster

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned when an uploaded table lacks a required
// column. It is a shape error: the operation halts before any join.
var ErrMissingColumn = errors.New("required column missing")

// Table names used in errors.
const (
	TableRequesters = "requesters"
	TableRoster     = "roster"
)

// MissingColumnError names the table and the column that was not found.
type MissingColumnError struct {
	Table   string
	Column  string
	Headers []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: column %q not found (headers: %s)",
		e.Table, e.Column, strings.Join(e.Headers, ", "))
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}
