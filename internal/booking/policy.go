package booking

import "github.com/AngelG-buaa/DB/internal/user"

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID string
	Role   user.Role
}

func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

type Action string

const (
	ActionCreate     Action = "create"
	ActionView       Action = "view"
	ActionViewAll    Action = "view-all"
	ActionEdit       Action = "edit"
	ActionSetStatus  Action = "set-status"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionCancel     Action = "cancel"
	ActionHardDelete Action = "hard-delete"
)

// Can is the single capability check for booking operations.
// Staff may do everything; requesters may create, and may view, edit or cancel their own bookings.
// b may be nil for actions that are not about a specific booking.
func Can(a Actor, action Action, b *Booking) bool {
	if a.UserID == "" {
		return false
	}
	if a.IsStaff() {
		return true
	}

	switch action {
	case ActionCreate:
		return true
	case ActionView, ActionEdit, ActionCancel:
		return b != nil && b.UserID == a.UserID
	default:
		return false
	}
}
