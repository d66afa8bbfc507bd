package common

import (
	"errors"
	"fmt"
)

// Error taxonomy for manual callers. Adapter-level transient/permanent
// classification lives on the publish result, not here, because nobody is
// waiting on an asynchronous firing.

// InvalidTransitionError is returned when a (from, to) pair is not in the
// transition table. The record is left untouched.
type InvalidTransitionError struct {
	From RecordStatus
	To   RecordStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// ValidationError covers missing/invalid scheduled times and content
// constraint violations on manual calls.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ErrNotFound covers a missing record or destination, and also a record
// that exists but is not owned by the caller (ownership failures are not
// distinguishable from absence).
var ErrNotFound = errors.New("not found")

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}
