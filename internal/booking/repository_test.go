package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelG-buaa/DB/internal/booking"
	"github.com/AngelG-buaa/DB/internal/db/dbtest"
	"github.com/AngelG-buaa/DB/internal/equipment"
	"github.com/AngelG-buaa/DB/internal/laboratory"
	"github.com/AngelG-buaa/DB/internal/user"
)

// pgFixture wires the booking service to real Postgres repositories.
type pgFixture struct {
	pool *pgxpool.Pool
	repo booking.Repository
	svc  booking.Service

	labID      string
	otherLabID string

	spectroID string
	balanceID string

	alice   booking.Actor
	bob     booking.Actor
	teacher booking.Actor
}

func newPgFixture(t *testing.T) *pgFixture {
	t.Helper()
	pool := dbtest.Open(t)
	ctx := context.Background()
	f := &pgFixture{pool: pool}

	users := user.NewPgxRepository(pool)
	member := func(email string, name *string, role user.Role) booking.Actor {
		u := &user.User{Email: email, PasswordHash: "hash", DisplayName: name, Role: role, IsActive: true}
		require.NoError(t, users.Create(ctx, u))
		return booking.Actor{UserID: u.ID, Role: role}
	}
	aliceName, tanName := "Alice", "Dr. Tan"
	f.alice = member("alice@lab.test", &aliceName, user.RoleStudent)
	f.bob = member("bob@lab.test", nil, user.RoleStudent)
	f.teacher = member("tan@lab.test", &tanName, user.RoleTeacher)

	labRepo := laboratory.NewPgxRepository(pool)
	chem := &laboratory.Laboratory{Name: "Chemistry 101", Status: laboratory.StatusAvailable}
	require.NoError(t, labRepo.Create(ctx, chem))
	bio := &laboratory.Laboratory{Name: "Biology 3", Status: laboratory.StatusAvailable}
	require.NoError(t, labRepo.Create(ctx, bio))
	f.labID, f.otherLabID = chem.ID, bio.ID

	eqRepo := equipment.NewPgxRepository(pool)
	spectro := &equipment.Equipment{LaboratoryID: chem.ID, Name: "Spectrometer", Status: equipment.StatusAvailable}
	require.NoError(t, eqRepo.Create(ctx, spectro))
	balance := &equipment.Equipment{LaboratoryID: chem.ID, Name: "Balance", Status: equipment.StatusAvailable}
	require.NoError(t, eqRepo.Create(ctx, balance))
	f.spectroID, f.balanceID = spectro.ID, balance.ID

	labService := laboratory.NewService(labRepo)
	f.repo = booking.NewPgxRepository(pool)
	f.svc = booking.NewService(f.repo, labService, equipment.NewService(eqRepo, labService),
		booking.WithClock(func() time.Time { return now }),
		booking.WithLocation(time.UTC),
	)
	return f
}

func (f *pgFixture) request(start, end, purpose string, equipmentIDs ...string) booking.CreateRequest {
	return booking.CreateRequest{
		LaboratoryID: f.labID,
		Date:         tomorrow,
		StartTime:    start,
		EndTime:      end,
		Purpose:      purpose,
		EquipmentIDs: equipmentIDs,
	}
}

// seed stores a booking through the store alone, bypassing locks and service checks.
func (f *pgFixture) seed(t *testing.T, actor booking.Actor, labID, date, start, end string, status booking.Status) (*booking.Booking, error) {
	t.Helper()
	slot, err := booking.ParseSlot(date, start, end)
	require.NoError(t, err)
	b := &booking.Booking{
		UserID:       actor.UserID,
		LaboratoryID: labID,
		Date:         slot.Date,
		Window:       slot.Window,
		Purpose:      "seeded",
		EquipmentIDs: []string{},
		Status:       status,
	}
	return b, f.repo.Create(context.Background(), b)
}

func TestPgxRepository_RoundTrip(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.alice, f.request("09:30", "11:00", "Titration", f.balanceID, f.spectroID))
	require.NoError(t, err)

	got, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	day, _ := booking.ParseDate(tomorrow)
	assert.True(t, day.Equal(got.Date), got.Date)
	assert.Equal(t, "09:30-11:00", got.Window.String())
	assert.Equal(t, []string{f.balanceID, f.spectroID}, got.EquipmentIDs, "submission order is kept")
	assert.Equal(t, "Alice", got.UserName)
	assert.Equal(t, "Chemistry 101", got.LaboratoryName)
	assert.Equal(t, booking.StatusPending, got.Status)

	ids := []string{f.spectroID}
	edited, err := f.svc.Edit(ctx, f.alice, created.ID, booking.EditRequest{EquipmentIDs: &ids, EndTime: strPtr("12:00")})
	require.NoError(t, err)
	got, err = f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.spectroID}, got.EquipmentIDs)
	assert.Equal(t, "09:30-12:00", got.Window.String())
	assert.False(t, got.UpdatedAt.Before(edited.CreatedAt))

	bobs, err := f.svc.Create(ctx, f.bob, f.request("13:00", "14:00", "Chromatography"))
	require.NoError(t, err)
	assert.Equal(t, "bob@lab.test", bobs.UserName, "requesters without a display name show their email")
	assert.Empty(t, bobs.EquipmentIDs)
	assert.NotNil(t, bobs.EquipmentIDs)

	_, err = f.repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestPgxRepository_ConcurrentOverlappingCreates(t *testing.T) {
	f := newPgFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const workers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := f.alice
			if i%2 == 1 {
				actor = f.bob
			}
			start := []string{"13:00", "13:30", "14:00"}[i%3]
			_, err := f.svc.Create(ctx, actor, f.request(start, "15:00", "Overlap", f.spectroID))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, booking.ErrTimeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	var rows int
	require.NoError(t, f.pool.QueryRow(ctx, "SELECT count(*) FROM public.bookings").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestPgxRepository_ExclusionConstraint(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	_, err := f.seed(t, f.alice, f.labID, tomorrow, "09:00", "10:00", booking.StatusPending)
	require.NoError(t, err)

	_, err = f.seed(t, f.bob, f.labID, tomorrow, "09:30", "10:30", booking.StatusConfirmed)
	assert.ErrorIs(t, err, booking.ErrTimeConflict)

	adjacent, err := f.seed(t, f.bob, f.labID, tomorrow, "10:00", "11:00", booking.StatusPending)
	assert.NoError(t, err, "windows are half-open")

	_, err = f.seed(t, f.bob, f.otherLabID, tomorrow, "09:00", "10:00", booking.StatusPending)
	assert.NoError(t, err, "other laboratory")

	_, err = f.seed(t, f.bob, f.labID, tomorrow, "09:00", "10:00", booking.StatusCancelled)
	assert.NoError(t, err, "cancelled bookings hold no slot")

	adjacent.Window.Start = booking.Clock(9, 45)
	assert.ErrorIs(t, f.repo.Update(ctx, adjacent), booking.ErrTimeConflict)

	inverted := &booking.Booking{
		UserID:       f.alice.UserID,
		LaboratoryID: f.labID,
		Date:         adjacent.Date,
		Window:       booking.Window{Start: booking.Clock(18, 0), End: booking.Clock(17, 0)},
		Purpose:      "inverted",
		Status:       booking.StatusPending,
	}
	assert.ErrorIs(t, f.repo.Create(ctx, inverted), booking.ErrInvalidWindow)

	unknown := &booking.Booking{
		UserID:       f.alice.UserID,
		LaboratoryID: f.labID,
		Date:         adjacent.Date,
		Window:       booking.Window{Start: booking.Clock(19, 0), End: booking.Clock(20, 0)},
		Purpose:      "unknown equipment",
		EquipmentIDs: []string{uuid.NewString()},
		Status:       booking.StatusPending,
	}
	err = f.repo.InTx(ctx, func(tx booking.Store) error { return tx.Create(ctx, unknown) })
	assert.ErrorIs(t, err, booking.ErrForeignEquipment)

	day, _ := booking.ParseDate(tomorrow)
	active, err := f.repo.ListActiveForDay(ctx, f.labID, day, "")
	require.NoError(t, err)
	assert.Len(t, active, 2, "the failed transaction left nothing behind")
}

func TestPgxRepository_ListActiveForDay(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	pending, err := f.seed(t, f.alice, f.labID, tomorrow, "13:00", "14:00", booking.StatusPending)
	require.NoError(t, err)
	confirmed, err := f.seed(t, f.bob, f.labID, tomorrow, "08:00", "09:00", booking.StatusConfirmed)
	require.NoError(t, err)
	_, err = f.seed(t, f.bob, f.labID, tomorrow, "08:30", "09:30", booking.StatusCancelled)
	require.NoError(t, err)
	_, err = f.seed(t, f.bob, f.labID, tomorrow, "15:00", "16:00", booking.StatusCompleted)
	require.NoError(t, err)
	_, err = f.seed(t, f.bob, f.labID, "2030-01-12", "13:00", "14:00", booking.StatusPending)
	require.NoError(t, err)

	day, _ := booking.ParseDate(tomorrow)
	active, err := f.repo.ListActiveForDay(ctx, f.labID, day, "")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, confirmed.ID, active[0].ID, "ordered by start")
	assert.Equal(t, pending.ID, active[1].ID)

	active, err = f.repo.ListActiveForDay(ctx, f.labID, day, pending.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, confirmed.ID, active[0].ID)
}

func TestPgxRepository_LabDayLockSerializesWriters(t *testing.T) {
	f := newPgFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	day, _ := booking.ParseDate(tomorrow)

	held := make(chan struct{})
	release := make(chan struct{})
	releaseOnce := sync.OnceFunc(func() { close(release) })
	defer releaseOnce()

	first := make(chan error, 1)
	go func() {
		first <- f.repo.InTx(ctx, func(tx booking.Store) error {
			if err := tx.LockLabDay(ctx, f.labID, day); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	select {
	case <-held:
	case err := <-first:
		t.Fatalf("first writer failed: %v", err)
	}

	require.NoError(t, f.repo.InTx(ctx, func(tx booking.Store) error {
		return tx.LockLabDay(ctx, f.labID, day.AddDate(0, 0, 1))
	}), "another day is not blocked")

	second := make(chan error, 1)
	go func() {
		second <- f.repo.InTx(ctx, func(tx booking.Store) error {
			return tx.LockLabDay(ctx, f.labID, day)
		})
	}()
	select {
	case err := <-second:
		t.Fatalf("second writer took a held lab/day lock: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	releaseOnce()
	require.NoError(t, <-first)
	require.NoError(t, <-second)
}

func TestPgxRepository_RowLockBlocksSecondEditor(t *testing.T) {
	f := newPgFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	b, err := f.seed(t, f.alice, f.labID, tomorrow, "09:00", "10:00", booking.StatusPending)
	require.NoError(t, err)

	held := make(chan struct{})
	release := make(chan struct{})
	releaseOnce := sync.OnceFunc(func() { close(release) })
	defer releaseOnce()

	first := make(chan error, 1)
	go func() {
		first <- f.repo.InTx(ctx, func(tx booking.Store) error {
			locked, err := tx.GetByIDForUpdate(ctx, b.ID)
			if err != nil {
				return err
			}
			close(held)
			<-release
			locked.Status = booking.StatusConfirmed
			return tx.Update(ctx, locked)
		})
	}()
	select {
	case <-held:
	case err := <-first:
		t.Fatalf("first editor failed: %v", err)
	}

	got, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err, "plain reads do not wait for the row lock")
	assert.Equal(t, booking.StatusPending, got.Status)

	seen := make(chan booking.Status, 1)
	second := make(chan error, 1)
	go func() {
		second <- f.repo.InTx(ctx, func(tx booking.Store) error {
			locked, err := tx.GetByIDForUpdate(ctx, b.ID)
			if err != nil {
				return err
			}
			seen <- locked.Status
			return nil
		})
	}()
	select {
	case <-seen:
		t.Fatal("second editor read a row locked by another transaction")
	case <-time.After(300 * time.Millisecond):
	}

	releaseOnce()
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.Equal(t, booking.StatusConfirmed, <-seen, "the second editor sees the committed status")
}

func TestPgxRepository_CancelOrDelete(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	t.Run("staff deletes a future booking with its equipment", func(t *testing.T) {
		b, err := f.svc.Create(ctx, f.alice, f.request("09:00", "10:00", "Titration", f.spectroID))
		require.NoError(t, err)

		out, err := f.svc.CancelOrDelete(ctx, f.teacher, b.ID)
		require.NoError(t, err)
		assert.True(t, out.Deleted)

		_, err = f.repo.GetByID(ctx, b.ID)
		assert.ErrorIs(t, err, booking.ErrNotFound)

		var links int
		require.NoError(t, f.pool.QueryRow(ctx,
			"SELECT count(*) FROM public.booking_equipment WHERE booking_id = $1", b.ID).Scan(&links))
		assert.Zero(t, links)
	})

	t.Run("requester cancel frees the window", func(t *testing.T) {
		b, err := f.svc.Create(ctx, f.alice, f.request("11:00", "12:00", "Titration"))
		require.NoError(t, err)

		out, err := f.svc.CancelOrDelete(ctx, f.alice, b.ID)
		require.NoError(t, err)
		assert.False(t, out.Deleted)

		got, err := f.repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, got.Status)

		_, err = f.svc.Create(ctx, f.bob, f.request("11:00", "12:00", "Chromatography"))
		assert.NoError(t, err)
	})

	t.Run("staff cancels a booking that already started", func(t *testing.T) {
		past, err := f.seed(t, f.alice, f.labID, yesterday, "09:00", "10:00", booking.StatusConfirmed)
		require.NoError(t, err)

		out, err := f.svc.CancelOrDelete(ctx, f.teacher, past.ID)
		require.NoError(t, err)
		assert.False(t, out.Deleted)

		got, err := f.repo.GetByID(ctx, past.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, got.Status)
	})
}

func TestPgxRepository_ListSearch(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	discount, err := f.svc.Create(ctx, f.alice, f.request("09:00", "10:00", "50% dilution series"))
	require.NoError(t, err)
	bobs, err := f.svc.Create(ctx, f.bob, f.request("11:00", "12:00", "500 titrations"))
	require.NoError(t, err)

	list := func(filter booking.Filter) ([]*booking.Booking, int) {
		t.Helper()
		out, total, err := f.repo.List(ctx, filter)
		require.NoError(t, err)
		return out, total
	}

	out, total := list(booking.Filter{Search: "50%"})
	assert.Equal(t, 1, total, "percent matches literally")
	require.Len(t, out, 1)
	assert.Equal(t, discount.ID, out[0].ID)

	_, total = list(booking.Filter{Search: "_"})
	assert.Zero(t, total, "underscore matches literally")

	out, total = list(booking.Filter{Search: "BOB@lab"})
	assert.Equal(t, 1, total, "requesters without a display name are found by email")
	require.Len(t, out, 1)
	assert.Equal(t, bobs.ID, out[0].ID)

	day, _ := booking.ParseDate(tomorrow)
	out, total = list(booking.Filter{LaboratoryID: f.labID, DateFrom: &day, DateTo: &day, Page: 1, PageSize: 1})
	assert.Equal(t, 2, total)
	require.Len(t, out, 1)
	assert.Equal(t, bobs.ID, out[0].ID, "latest start first by default")

	_, total = list(booking.Filter{UserID: f.alice.UserID, Status: booking.StatusPending})
	assert.Equal(t, 1, total)
}
