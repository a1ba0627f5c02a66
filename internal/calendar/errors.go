package calendar

import (
	"errors"
	"fmt"

	"plancal/internal/caltime"
)

// ErrRecurringConflict is matched by every RecurringConflictError.
var ErrRecurringConflict = errors.New("recurring event conflicts with existing event")

// RecurringConflictError names the first date on which a proposed series
// would overlap something already in the calendar.
type RecurringConflictError struct {
	Date caltime.Date
}

func (e *RecurringConflictError) Error() string {
	return fmt.Sprintf("%s on %s", ErrRecurringConflict, e.Date)
}

func (e *RecurringConflictError) Is(target error) bool {
	return target == ErrRecurringConflict
}
