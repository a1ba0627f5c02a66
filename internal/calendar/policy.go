package calendar

import (
	"fmt"
	"strings"

	"plancal/internal/model"
)

// ConflictPolicy decides whether overlapping events may coexist.
type ConflictPolicy int

const (
	// RejectConflicts refuses any event that overlaps an existing one.
	RejectConflicts ConflictPolicy = iota
	// AllowConflicts only refuses exact duplicates.
	AllowConflicts
)

func (p ConflictPolicy) String() string {
	switch p {
	case RejectConflicts:
		return "REJECT_CONFLICTS"
	case AllowConflicts:
		return "ALLOW_CONFLICTS"
	}
	return fmt.Sprintf("ConflictPolicy(%d)", int(p))
}

func (p ConflictPolicy) valid() bool {
	return p == RejectConflicts || p == AllowConflicts
}

func (p ConflictPolicy) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidArgument, p)
	}
	return []byte(p.String()), nil
}

// UnmarshalText accepts REJECT_CONFLICTS or ALLOW_CONFLICTS, in any case and
// with or without the _CONFLICTS suffix. Empty text selects RejectConflicts.
func (p *ConflictPolicy) UnmarshalText(text []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(text)))
	switch strings.TrimSuffix(s, "_CONFLICTS") {
	case "", "REJECT":
		*p = RejectConflicts
	case "ALLOW":
		*p = AllowConflicts
	default:
		return fmt.Errorf("%w: unknown conflict policy %q", model.ErrInvalidArgument, string(text))
	}
	return nil
}
