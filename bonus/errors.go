package bonus

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLots is returned when a configuration has no lots at all.
	ErrNoLots = errors.New("at least one lot is required")

	// ErrDuplicateLot is returned when a lot label appears twice.
	ErrDuplicateLot = errors.New("duplicate lot")

	// ErrEmptyLotID is returned for a lot with a blank label.
	ErrEmptyLotID = errors.New("lot label is empty")

	// ErrNegativeBudget is returned when a lot budget is below zero.
	ErrNegativeBudget = errors.New("lot budget must not be negative")

	// ErrUnknownProcess is returned for a process type outside the closed set.
	ErrUnknownProcess = errors.New("unknown process type")

	// ErrNumberOutOfRange is returned for a number whose exponent is outside
	// [-MaxExponent, MaxExponent], such as "1e2000000000".
	ErrNumberOutOfRange = errors.New("number out of range")
)

// LotError ties a lot validation failure to its label.
type LotError struct {
	Lot LotID
	Err error
}

func (e *LotError) Error() string {
	return fmt.Sprintf("lot %q: %v", e.Lot, e.Err)
}

func (e *LotError) Unwrap() error { return e.Err }

// ProcessTypeError carries the rejected process type.
type ProcessTypeError struct {
	Value string
}

func (e *ProcessTypeError) Error() string {
	return fmt.Sprintf("unknown process type %q (want PRODUCCION or LEVANTE)", e.Value)
}

func (e *ProcessTypeError) Unwrap() error { return ErrUnknownProcess }

// IsConfigError reports whether err is a lot or process configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNoLots) ||
		errors.Is(err, ErrDuplicateLot) ||
		errors.Is(err, ErrEmptyLotID) ||
		errors.Is(err, ErrNegativeBudget) ||
		errors.Is(err, ErrUnknownProcess)
}
