package application

import (
	"errors"
	"fmt"
)

// Failure kinds. A failed Result wraps exactly one of them.
var (
	// ErrDataIntegrityGap means data that must exist was missing
	ErrDataIntegrityGap = errors.New("data integrity gap")
	// ErrPersistenceFailure means a read model, command handler or dedup store failed
	ErrPersistenceFailure = errors.New("persistence failure")
)

// Status is the outcome of one handler invocation
type Status int

const (
	// StatusNotApplicable means preconditions did not hold. The dedup token stays
	// unmarked so a later delivery can run once they do.
	StatusNotApplicable Status = iota
	// StatusAlreadyDone means the dedup token was already marked
	StatusAlreadyDone
	// StatusVacuousSuccess means there was nothing to do; the token is marked
	StatusVacuousSuccess
	// StatusSuccess means every side effect committed and the token is marked
	StatusSuccess
	// StatusFailure means the invocation aborted; the token stays unmarked
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusNotApplicable:
		return "not_applicable"
	case StatusAlreadyDone:
		return "already_done"
	case StatusVacuousSuccess:
		return "vacuous_success"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is returned by every batch handler
type Result struct {
	Status Status
	Err    error
}

// NotApplicable returns a not applicable result
func NotApplicable() Result { return Result{Status: StatusNotApplicable} }

// AlreadyDone returns an already done result
func AlreadyDone() Result { return Result{Status: StatusAlreadyDone} }

// VacuousSuccess returns a vacuous success result
func VacuousSuccess() Result { return Result{Status: StatusVacuousSuccess} }

// Success returns a success result
func Success() Result { return Result{Status: StatusSuccess} }

// Failure returns a failed result of the given kind
func Failure(kind error, err error) Result {
	return Result{Status: StatusFailure, Err: fmt.Errorf("%w: %w", kind, err)}
}

// Failed reports whether the invocation failed
func (r Result) Failed() bool {
	return r.Status == StatusFailure
}
