package user

import (
	"time"

	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(apperror.KindNotFound, "user not found")
	ErrEmailAlreadyUsed   = apperror.New(apperror.KindConflict, "email already used")
	ErrInvalidCredentials = apperror.New(apperror.KindPermission, "invalid email or password")
	ErrInactiveUser       = apperror.New(apperror.KindPermission, "user is inactive")
	ErrEmailRequired      = apperror.New(apperror.KindValidation, "email is required")
	ErrPasswordTooShort   = apperror.New(apperror.KindValidation, "password is too short")
	ErrInvalidRole        = apperror.New(apperror.KindValidation, "invalid role")
)

// Role decides what a user may do with bookings and directories.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// IsStaff is true for teachers and admins.
func (r Role) IsStaff() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// User represents a user in the system.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	Role         Role
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
}

// Name is the display name, falling back to the email address.
func (u *User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Email
}

// UserFilter defines filter options for listing users.
type UserFilter struct {
	Email       string
	DisplayName string
	Role        Role
	IsActive    *bool // Use pointer to distinguish between false and nil (not set)

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// UpdateUserRequest carries the admin-editable fields. Nil means unchanged.
type UpdateUserRequest struct {
	DisplayName *string
	IsActive    *bool
	Role        *Role
}
