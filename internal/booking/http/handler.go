package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AngelG-buaa/DB/internal/auth"
	"github.com/AngelG-buaa/DB/internal/booking"
	"github.com/AngelG-buaa/DB/internal/pkg/request"
	"github.com/AngelG-buaa/DB/internal/pkg/response"
	"github.com/AngelG-buaa/DB/internal/user"
)

type BookingHandler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *BookingHandler {
	return &BookingHandler{service: service}
}

func actorFrom(c *gin.Context) booking.Actor {
	return booking.Actor{
		UserID: auth.GetUserID(c),
		Role:   user.Role(auth.GetUserRole(c)),
	}
}

// respondError renders conflict errors with the blocking reservations attached.
func respondError(c *gin.Context, err error) {
	var conflict *booking.ConflictError
	if errors.As(err, &conflict) {
		response.ErrorWithDetails(c, err, gin.H{
			"conflicting_reservations": newConflictingReservations(conflict.Conflicts),
		})
		return
	}
	response.Error(c, err)
}

// List returns bookings visible to the caller. Requesters only ever see their own.
func (h *BookingHandler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	h.list(c, req.Filter(), req.Page, req.PageSize)
}

// ListMine returns the caller's own bookings regardless of role.
func (h *BookingHandler) ListMine(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	filter := req.Filter()
	filter.UserID = auth.GetUserID(c)
	h.list(c, filter, req.Page, req.PageSize)
}

// Calendar returns the bookings of a date range in chronological order, unpaginated.
// Requesters only see their own.
func (h *BookingHandler) Calendar(c *gin.Context) {
	var req CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	bookings, total, err := h.service.List(c.Request.Context(), actorFrom(c), req.Filter())
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	c.JSON(http.StatusOK, CalendarResponse{Items: items, Truncated: total > len(items)})
}

func (h *BookingHandler) list(c *gin.Context, filter booking.Filter, page, pageSize int) {
	bookings, total, err := h.service.List(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, page, pageSize, total))
}

func (h *BookingHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), actorFrom(c), uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *BookingHandler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), actorFrom(c), booking.CreateRequest{
		LaboratoryID: body.LaboratoryID,
		Date:         body.Date,
		StartTime:    body.StartTime,
		EndTime:      body.EndTime,
		Purpose:      body.Purpose,
		EquipmentIDs: body.EquipmentIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

// CheckConflict previews whether a window is free. Nothing is written.
func (h *BookingHandler) CheckConflict(c *gin.Context) {
	var body CheckConflictRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	conflicts, err := h.service.CheckConflict(c.Request.Context(), booking.CheckConflictRequest{
		LaboratoryID: body.LaboratoryID,
		Date:         body.Date,
		StartTime:    body.StartTime,
		EndTime:      body.EndTime,
		ExcludeID:    body.ExcludeID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CheckConflictResponse{
		Available:               len(conflicts) == 0,
		ConflictingReservations: newConflictingReservations(conflicts),
	})
}

func (h *BookingHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	var body UpdateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := booking.EditRequest{
		Date:         body.Date,
		StartTime:    body.StartTime,
		EndTime:      body.EndTime,
		Purpose:      body.Purpose,
		EquipmentIDs: body.EquipmentIDs,
	}
	if body.Status != nil {
		st := booking.Status(*body.Status)
		req.Status = &st
	}

	b, err := h.service.Edit(c.Request.Context(), actorFrom(c), uri.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Approve confirms a pending booking. Staff only.
func (h *BookingHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Reject cancels a pending or confirmed booking. Staff only.
func (h *BookingHandler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

func (h *BookingHandler) transition(c *gin.Context, fn func(ctx context.Context, actor booking.Actor, id string) (*booking.Booking, error)) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	b, err := fn(c.Request.Context(), actorFrom(c), uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Delete hard-deletes a future booking for staff and cancels it otherwise.
func (h *BookingHandler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	out, err := h.service.CancelOrDelete(c.Request.Context(), actorFrom(c), uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	if out.Deleted {
		c.Status(http.StatusNoContent)
		return
	}
	resp := NewBookingResponse(out.Booking)
	c.JSON(http.StatusOK, DeleteBookingResponse{Deleted: false, Booking: &resp})
}

// Availability returns the 30-minute timeline of a laboratory for one day.
func (h *BookingHandler) Availability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid id", err)
		return
	}

	var q AvailabilityRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	slots, err := h.service.GetAvailability(c.Request.Context(), uri.ID, q.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		LaboratoryID: uri.ID,
		Date:         q.Date,
		Slots:        slots,
	})
}
