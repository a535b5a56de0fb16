package booking

import (
	"fmt"
	"sort"
)

// Timeline grid: 08:00 to 22:00 in 30 minute steps.
var (
	TimelineOpen  = Clock(8, 0)
	TimelineClose = Clock(22, 0)
)

const TimelineStep = 30

// TimelineSlotCount is the fixed length of every timeline.
const TimelineSlotCount = (22 - 8) * 60 / TimelineStep

type TimelineSlot struct {
	Time            string  `json:"time"`
	Available       bool    `json:"available"`
	ReservationInfo *string `json:"reservation_info"`
}

// BuildTimeline folds the active bookings of one laboratory/day onto the slot grid.
// A slot starting at t is occupied by the first booking, in date then start order, with start <= t < end.
func BuildTimeline(bookings []*Booking) []TimelineSlot {
	active := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil && b.Status.Active() {
			active = append(active, b)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if !active[i].Date.Equal(active[j].Date) {
			return active[i].Date.Before(active[j].Date)
		}
		return active[i].Window.Start < active[j].Window.Start
	})

	slots := make([]TimelineSlot, 0, TimelineSlotCount)
	for t := TimelineOpen; t < TimelineClose; t += TimelineStep {
		slot := TimelineSlot{Time: t.String(), Available: true}
		for _, b := range active {
			if b.Window.Contains(t) {
				info := describe(b)
				slot.Available = false
				slot.ReservationInfo = &info
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

func describe(b *Booking) string {
	return fmt.Sprintf("%s %s %s", b.UserName, b.Window, b.Purpose)
}
