package http

import (
	"strings"
	"time"

	"github.com/AngelG-buaa/DB/internal/booking"
	"github.com/AngelG-buaa/DB/internal/pkg/request"
)

type ListBookingsRequest struct {
	request.ListParams
	LaboratoryID string `form:"laboratory_id" binding:"omitempty,uuid"`
	UserID       string `form:"user_id" binding:"omitempty,uuid"`
	Status       string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	DateFrom     string `form:"date_from" binding:"omitempty,date"`
	DateTo       string `form:"date_to" binding:"omitempty,date"`
	Search       string `form:"search"`
	SortBy       string `form:"sort_by" binding:"omitempty,oneof=date created_at status"`
}

// Filter converts the query into a booking filter. Dates were validated by binding.
func (r *ListBookingsRequest) Filter() booking.Filter {
	f := booking.Filter{
		LaboratoryID: r.LaboratoryID,
		UserID:       r.UserID,
		Status:       booking.Status(r.Status),
		Search:       strings.TrimSpace(r.Search),
		Page:         r.Page,
		PageSize:     r.PageSize,
		SortBy:       r.SortBy,
		SortOrder:    strings.ToUpper(r.SortOrder),
	}
	if d, err := booking.ParseDate(r.DateFrom); err == nil {
		f.DateFrom = &d
	}
	if d, err := booking.ParseDate(r.DateTo); err == nil {
		f.DateTo = &d
	}
	return f
}

// CalendarLimit caps the bookings returned by one calendar request.
const CalendarLimit = 2000

// CalendarRequest selects bookings for a calendar view. It is not paginated.
type CalendarRequest struct {
	LaboratoryID string `form:"laboratory_id" binding:"omitempty,uuid"`
	UserID       string `form:"user_id" binding:"omitempty,uuid"`
	Status       string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	DateFrom     string `form:"date_from" binding:"omitempty,date"`
	DateTo       string `form:"date_to" binding:"omitempty,date"`
}

// Filter orders the range chronologically and replaces paging with CalendarLimit.
func (r *CalendarRequest) Filter() booking.Filter {
	list := ListBookingsRequest{
		LaboratoryID: r.LaboratoryID,
		UserID:       r.UserID,
		Status:       r.Status,
		DateFrom:     r.DateFrom,
		DateTo:       r.DateTo,
		SortBy:       "date",
	}
	list.Page = 1
	list.PageSize = CalendarLimit
	list.SortOrder = "asc"
	return list.Filter()
}

type CreateBookingRequest struct {
	LaboratoryID string   `json:"laboratory_id" binding:"required,uuid"`
	Date         string   `json:"booking_date" binding:"required,date"`
	StartTime    string   `json:"start_time" binding:"required,clock"`
	EndTime      string   `json:"end_time" binding:"required,clock"`
	Purpose      string   `json:"purpose" binding:"required"`
	EquipmentIDs []string `json:"equipment_ids"`
}

type UpdateBookingRequest struct {
	Date         *string   `json:"booking_date" binding:"omitempty,date"`
	StartTime    *string   `json:"start_time" binding:"omitempty,clock"`
	EndTime      *string   `json:"end_time" binding:"omitempty,clock"`
	Purpose      *string   `json:"purpose"`
	EquipmentIDs *[]string `json:"equipment_ids"`
	Status       *string   `json:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
}

type CheckConflictRequest struct {
	LaboratoryID string `json:"laboratory_id" binding:"required,uuid"`
	Date         string `json:"booking_date" binding:"required,date"`
	StartTime    string `json:"start_time" binding:"required,clock"`
	EndTime      string `json:"end_time" binding:"required,clock"`
	ExcludeID    string `json:"exclude_id" binding:"omitempty,uuid"`
}

type AvailabilityRequest struct {
	Date string `form:"date" binding:"required,date"`
}

type LaboratoryTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UserTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookingResponse struct {
	ID           string        `json:"id"`
	Laboratory   LaboratoryTag `json:"laboratory"`
	User         UserTag       `json:"user"`
	Date         string        `json:"booking_date"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	Purpose      string        `json:"purpose"`
	EquipmentIDs []string      `json:"equipment_ids"`
	Status       string        `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	equipment := b.EquipmentIDs
	if equipment == nil {
		equipment = []string{}
	}
	return BookingResponse{
		ID:           b.ID,
		Laboratory:   LaboratoryTag{ID: b.LaboratoryID, Name: b.LaboratoryName},
		User:         UserTag{ID: b.UserID, Name: b.UserName},
		Date:         b.Slot().DateString(),
		StartTime:    b.Window.Start.String(),
		EndTime:      b.Window.End.String(),
		Purpose:      b.Purpose,
		EquipmentIDs: equipment,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// ConflictingReservation is the short form of a booking that blocks a window.
type ConflictingReservation struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Purpose   string `json:"purpose"`
	UserName  string `json:"user_name"`
}

type CalendarResponse struct {
	Items     []BookingResponse `json:"items"`
	Truncated bool              `json:"truncated"` // more than CalendarLimit bookings matched
}

type CheckConflictResponse struct {
	Available               bool                     `json:"available"`
	ConflictingReservations []ConflictingReservation `json:"conflicting_reservations"`
}

func newConflictingReservations(bookings []*booking.Booking) []ConflictingReservation {
	out := make([]ConflictingReservation, len(bookings))
	for i, b := range bookings {
		out[i] = ConflictingReservation{
			ID:        b.ID,
			StartTime: b.Window.Start.String(),
			EndTime:   b.Window.End.String(),
			Purpose:   b.Purpose,
			UserName:  b.UserName,
		}
	}
	return out
}

type AvailabilityResponse struct {
	LaboratoryID string                 `json:"laboratory_id"`
	Date         string                 `json:"date"`
	Slots        []booking.TimelineSlot `json:"slots"`
}

type DeleteBookingResponse struct {
	Deleted bool             `json:"deleted"`
	Booking *BookingResponse `json:"booking,omitempty"`
}
