package model

import "errors"

var (
	// ErrInvalidArgument marks a missing or malformed input to an operation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState marks a Builder that cannot produce an event.
	ErrInvalidState = errors.New("invalid event state")
)

// Builder validation failures. Each matches itself and ErrInvalidState.
var (
	ErrSubjectRequired     error = stateError("subject is required")
	ErrStartDateRequired   error = stateError("start date is required")
	ErrEndTimeWithoutStart error = stateError("end time cannot be set without start time")
	ErrEndDateBeforeStart  error = stateError("end date cannot be before start date")
	ErrEndTimeBeforeStart  error = stateError("end time cannot be before start time on same day")
)

type stateError string

func (e stateError) Error() string { return string(e) }

func (e stateError) Is(target error) bool {
	return target == ErrInvalidState
}
