package session

import (
	"errors"
	"fmt"

	"github.com/warp/bono-engine/bonus"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNoInputs is returned when an action needs the joined roster first.
	ErrNoInputs = errors.New("requester list and roster not loaded")

	// ErrUnknownCell is returned for an entry update outside the matrix.
	ErrUnknownCell = errors.New("unknown worker row or lot")

	// ErrSessionNotFound is returned by a Store for an unknown ID.
	ErrSessionNotFound = errors.New("session not found")
)

// TransitionError names the state and the rejected action.
type TransitionError struct {
	From   State
	Action string
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s in state %s: %v", e.Action, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// Is makes every TransitionError match ErrInvalidTransition, including the
// ones caused by missing inputs.
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// CellError identifies an entry update that does not address a real cell.
type CellError struct {
	Row int
	Lot bonus.LotID
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, lot %q: %v", e.Row, e.Lot, ErrUnknownCell)
}

func (e *CellError) Unwrap() error { return ErrUnknownCell }
