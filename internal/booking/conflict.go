package booking

import (
	"fmt"
	"strings"
)

// FindConflicts returns the active bookings in existing whose window overlaps candidate.
// The booking with excludeID is ignored so an edit never conflicts with itself.
func FindConflicts(candidate Window, existing []*Booking, excludeID string) []*Booking {
	var conflicts []*Booking
	for _, b := range existing {
		if b == nil || !b.Status.Active() {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if candidate.Overlaps(b.Window) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}

// ConflictError carries the bookings that block a requested window.
// errors.Is(err, ErrTimeConflict) holds for it.
type ConflictError struct {
	Conflicts []*Booking
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, b := range e.Conflicts {
		parts[i] = fmt.Sprintf("%s %s", b.Window, b.UserName)
	}
	return fmt.Sprintf("%s: %s", ErrTimeConflict.Message, strings.Join(parts, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrTimeConflict
}
