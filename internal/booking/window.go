package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is minute precision wall-clock time, counted from midnight.
type TimeOfDay int

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" with zero seconds.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, ErrInvalidTimeFormat
	}
	h, err := parseField(parts[0], 23)
	if err != nil {
		return 0, err
	}
	m, err := parseField(parts[1], 59)
	if err != nil {
		return 0, err
	}
	if len(parts) == 3 {
		sec, err := parseField(parts[2], 59)
		if err != nil {
			return 0, err
		}
		if sec != 0 {
			return 0, ErrInvalidTimeFormat
		}
	}
	return TimeOfDay(h*minutesPerHour + m), nil
}

func parseField(s string, max int) (int, error) {
	if len(s) != 2 {
		return 0, ErrInvalidTimeFormat
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > max {
		return 0, ErrInvalidTimeFormat
	}
	return n, nil
}

// Clock builds a TimeOfDay from hours and minutes.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*minutesPerHour + minute)
}

func (t TimeOfDay) Hour() int   { return int(t) / minutesPerHour }
func (t TimeOfDay) Minute() int { return int(t) % minutesPerHour }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Duration is the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

// Window is a half-open interval [Start, End) within one day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewWindow fails with ErrInvalidWindow unless start < end.
func NewWindow(start, end TimeOfDay) (Window, error) {
	if start < 0 || end > minutesPerDay || start >= end {
		return Window{}, ErrInvalidWindow
	}
	return Window{Start: start, End: end}, nil
}

// Overlaps uses half-open semantics: [a,b) and [c,d) overlap iff a < d and c < b.
func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

// Contains reports Start <= t < End.
func (w Window) Contains(t TimeOfDay) bool {
	return w.Start <= t && t < w.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Slot is a window on a calendar day.
type Slot struct {
	Date time.Time
	Window
}

// ParseDate parses YYYY-MM-DD into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidTimeFormat
	}
	return d, nil
}

const DateLayout = "2006-01-02"

// ParseSlot validates a (date, start, end) triple. It does not look at the clock.
func ParseSlot(date, start, end string) (Slot, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Slot{}, err
	}
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Slot{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Slot{}, err
	}
	w, err := NewWindow(s, e)
	if err != nil {
		return Slot{}, err
	}
	return Slot{Date: d, Window: w}, nil
}

// DateString formats the day as YYYY-MM-DD.
func (s Slot) DateString() string {
	return s.Date.Format(DateLayout)
}

// StartAt is the instant the slot begins, interpreting wall-clock time in loc.
func (s Slot) StartAt(loc *time.Location) time.Time {
	y, m, d := s.Date.Date()
	return time.Date(y, m, d, s.Start.Hour(), s.Start.Minute(), 0, 0, loc)
}

// StartsAfter reports whether the slot begins strictly after now.
func (s Slot) StartsAfter(now time.Time, loc *time.Location) bool {
	return s.StartAt(loc).After(now)
}

// validateFuture fails with ErrPastWindow when the slot does not start after now.
func validateFuture(s Slot, now time.Time, loc *time.Location) error {
	if !s.StartsAfter(now, loc) {
		return ErrPastWindow
	}
	return nil
}
