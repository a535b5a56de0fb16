package booking

import "time"

// Routing keys of published lifecycle events.
const (
	EventCreated   = "booking.created"
	EventApproved  = "booking.approved"
	EventRejected  = "booking.rejected"
	EventUpdated   = "booking.updated"
	EventCancelled = "booking.cancelled"
	EventDeleted   = "booking.deleted"
)

type Event struct {
	Type         string    `json:"type"`
	BookingID    string    `json:"booking_id"`
	LaboratoryID string    `json:"laboratory_id"`
	UserID       string    `json:"user_id"`
	ActorID      string    `json:"actor_id"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Status       Status    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func newEvent(eventType string, actor Actor, b *Booking, at time.Time) Event {
	return Event{
		Type:         eventType,
		BookingID:    b.ID,
		LaboratoryID: b.LaboratoryID,
		UserID:       b.UserID,
		ActorID:      actor.UserID,
		Date:         b.Slot().DateString(),
		StartTime:    b.Window.Start.String(),
		EndTime:      b.Window.End.String(),
		Status:       b.Status,
		OccurredAt:   at.UTC(),
	}
}
