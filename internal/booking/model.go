package booking

import (
	"time"

	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
)

var (
	ErrNotFound              = apperror.New(apperror.KindNotFound, "booking not found")
	ErrLaboratoryNotFound    = apperror.New(apperror.KindNotFound, "laboratory not found")
	ErrLaboratoryUnavailable = apperror.New(apperror.KindValidation, "laboratory is not available for booking")

	ErrInvalidTimeFormat = apperror.New(apperror.KindValidation, "invalid date or time format")
	ErrInvalidWindow     = apperror.New(apperror.KindValidation, "start time must be before end time")
	ErrPastWindow        = apperror.New(apperror.KindValidation, "booking must start in the future")
	ErrInvalidPurpose    = apperror.New(apperror.KindValidation, "purpose must be between 1 and 500 characters")
	ErrInvalidStatus     = apperror.New(apperror.KindValidation, "invalid booking status")
	ErrEmptyEdit         = apperror.New(apperror.KindValidation, "no fields to update")

	ErrTimeConflict           = apperror.New(apperror.KindConflict, "time slot conflicts with an existing booking")
	ErrForeignEquipment       = apperror.New(apperror.KindForeignResource, "some equipment does not exist in this laboratory or is not available")
	ErrPermissionDenied       = apperror.New(apperror.KindPermission, "permission denied")
	ErrInvalidStateTransition = apperror.New(apperror.KindInvalidStateTransition, "booking status does not allow this operation")
)

const MaxPurposeLength = 500

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ActiveStatuses are the statuses that hold a time slot.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Active reports whether a booking in this status occupies its window.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal statuses can never be left.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Booking is a reservation of one laboratory for a window of a single day.
type Booking struct {
	ID             string
	UserID         string
	UserName       string
	LaboratoryID   string
	LaboratoryName string
	Date           time.Time // midnight UTC of the booked day
	Window         Window
	Purpose        string
	EquipmentIDs   []string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Slot returns the booked day and window.
func (b *Booking) Slot() Slot {
	return Slot{Date: b.Date, Window: b.Window}
}

// Clone returns a deep copy.
func (b *Booking) Clone() *Booking {
	cp := *b
	if b.EquipmentIDs != nil {
		cp.EquipmentIDs = append([]string(nil), b.EquipmentIDs...)
	}
	return &cp
}

type Filter struct {
	LaboratoryID string
	UserID       string
	Status       Status
	DateFrom     *time.Time
	DateTo       *time.Time
	Search       string // purpose, requester or laboratory name

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Outcome is the result of CancelOrDelete.
type Outcome struct {
	Deleted bool
	Booking *Booking // the cancelled booking, or the removed one when Deleted
}
