package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookingAt(id string, start, end TimeOfDay, status Status) *Booking {
	return &Booking{
		ID:       id,
		UserName: "user-" + id,
		Window:   Window{Start: start, End: end},
		Purpose:  "lab work",
		Status:   status,
	}
}

func TestFindConflicts(t *testing.T) {
	existing := []*Booking{
		bookingAt("a", Clock(9, 0), Clock(11, 0), StatusConfirmed),
		bookingAt("b", Clock(11, 0), Clock(12, 0), StatusPending),
		bookingAt("c", Clock(9, 0), Clock(12, 0), StatusCancelled),
		bookingAt("d", Clock(10, 0), Clock(10, 30), StatusCompleted),
	}

	t.Run("overlaps only active", func(t *testing.T) {
		got := FindConflicts(Window{Clock(10, 0), Clock(11, 30)}, existing, "")
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "b", got[1].ID)
	})

	t.Run("adjacent windows are free", func(t *testing.T) {
		got := FindConflicts(Window{Clock(12, 0), Clock(13, 0)}, existing, "")
		assert.Empty(t, got)
	})

	t.Run("exclude id", func(t *testing.T) {
		got := FindConflicts(Window{Clock(9, 0), Clock(10, 0)}, existing, "a")
		assert.Empty(t, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		w := Window{Clock(8, 0), Clock(13, 0)}
		assert.Equal(t, FindConflicts(w, existing, ""), FindConflicts(w, existing, ""))
	})
}

func TestConflictError(t *testing.T) {
	err := error(&ConflictError{Conflicts: []*Booking{
		bookingAt("a", Clock(9, 0), Clock(10, 0), StatusPending),
	}})

	assert.True(t, errors.Is(err, ErrTimeConflict))
	assert.Contains(t, err.Error(), "09:00-10:00 user-a")

	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Len(t, ce.Conflicts, 1)
}

func TestNormalizeEquipmentIDs(t *testing.T) {
	got := normalizeEquipmentIDs([]string{" B ", "a", "b", "", "A", "c"})
	assert.Equal(t, []string{"b", "a", "c"}, got)
	assert.Empty(t, normalizeEquipmentIDs(nil))
}
