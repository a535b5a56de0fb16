package laboratory

import (
	"time"

	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(apperror.KindNotFound, "laboratory not found")
	ErrNameRequired    = apperror.New(apperror.KindValidation, "laboratory name is required")
	ErrCapacityInvalid = apperror.New(apperror.KindValidation, "capacity must not be negative")
	ErrInvalidStatus   = apperror.New(apperror.KindValidation, "invalid laboratory status")
)

// Status is advisory. Only StatusAvailable labs accept new bookings.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusMaintenance Status = "maintenance"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusUnavailable, StatusMaintenance:
		return true
	}
	return false
}

// Laboratory is a bookable room.
type Laboratory struct {
	ID          string
	Name        string
	Location    string // building / room
	Capacity    int
	Description string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter defines parameters for listing laboratories.
type Filter struct {
	Keyword  string // Search in Name or Location
	Status   Status
	Page     int
	PageSize int

	SortBy    string
	SortOrder string
}
