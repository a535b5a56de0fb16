package equipment

import (
	"time"

	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(apperror.KindNotFound, "equipment not found")
	ErrEmptyName         = apperror.New(apperror.KindValidation, "name cannot be empty")
	ErrInvalidStatus     = apperror.New(apperror.KindValidation, "invalid equipment status")
	ErrInvalidLaboratory = apperror.New(apperror.KindValidation, "invalid laboratory_id")
	ErrSerialTaken       = apperror.New(apperror.KindConflict, "serial number already registered")
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusInUse       Status = "in_use"
	StatusMaintenance Status = "maintenance"
	StatusDamaged     Status = "damaged"
	StatusRetired     Status = "retired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance, StatusDamaged, StatusRetired:
		return true
	}
	return false
}

// Equipment is an instrument that lives in exactly one laboratory.
type Equipment struct {
	ID             string
	LaboratoryID   string
	LaboratoryName string
	Name           string
	Model          string
	SerialNumber   *string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Filter defines parameters for listing equipment.
type Filter struct {
	LaboratoryID string
	Status       Status
	Keyword      string // Search in Name, Model or SerialNumber
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
