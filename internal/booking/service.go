package booking

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AngelG-buaa/DB/internal/laboratory"
	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
	"github.com/AngelG-buaa/DB/internal/pkg/cache"
	"github.com/AngelG-buaa/DB/internal/pkg/logger"
	"github.com/AngelG-buaa/DB/internal/pkg/metrics"
)

// LaboratoryDirectory resolves laboratories by id.
type LaboratoryDirectory interface {
	GetByID(ctx context.Context, id string) (*laboratory.Laboratory, error)
}

// EventPublisher receives lifecycle events after they are committed.
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

// TimelineCache stores computed availability timelines.
// Entries live under a per-day generation that writers bump after commit.
type TimelineCache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
	// Generation returns the counter stored under key, or zero when unset.
	Generation(ctx context.Context, key string) (int64, error)
	// Bump increments the counter stored under key and returns the new value.
	Bump(ctx context.Context, key string) (int64, error)
}

type CreateRequest struct {
	LaboratoryID string
	Date         string // YYYY-MM-DD
	StartTime    string // HH:MM
	EndTime      string // HH:MM
	Purpose      string
	EquipmentIDs []string
}

// EditRequest is a partial update. Nil fields are left unchanged.
type EditRequest struct {
	Date         *string
	StartTime    *string
	EndTime      *string
	Purpose      *string
	EquipmentIDs *[]string
	Status       *Status
}

func (r EditRequest) empty() bool {
	return r.Date == nil && r.StartTime == nil && r.EndTime == nil &&
		r.Purpose == nil && r.EquipmentIDs == nil && r.Status == nil
}

func (r EditRequest) touchesTime() bool {
	return r.Date != nil || r.StartTime != nil || r.EndTime != nil
}

type CheckConflictRequest struct {
	LaboratoryID string
	Date         string
	StartTime    string
	EndTime      string
	ExcludeID    string
}

type Service interface {
	Create(ctx context.Context, actor Actor, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, actor Actor, id string) (*Booking, error)
	List(ctx context.Context, actor Actor, filter Filter) ([]*Booking, int, error)
	CheckConflict(ctx context.Context, req CheckConflictRequest) ([]*Booking, error)
	Approve(ctx context.Context, actor Actor, id string) (*Booking, error)
	Reject(ctx context.Context, actor Actor, id string) (*Booking, error)
	Edit(ctx context.Context, actor Actor, id string, req EditRequest) (*Booking, error)
	CancelOrDelete(ctx context.Context, actor Actor, id string) (*Outcome, error)
	GetAvailability(ctx context.Context, labID, date string) ([]TimelineSlot, error)
}

type service struct {
	repo      Repository
	labs      LaboratoryDirectory
	equipment EquipmentDirectory

	now     func() time.Time
	loc     *time.Location
	log     *zap.Logger
	metrics *metrics.Metrics
	events  EventPublisher
	cache   TimelineCache
}

type Option func(*service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLocation sets the zone booking dates and times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *service) { s.metrics = m }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *service) { s.events = p }
}

func WithTimelineCache(c TimelineCache) Option {
	return func(s *service) { s.cache = c }
}

func NewService(repo Repository, labs LaboratoryDirectory, equipment EquipmentDirectory, opts ...Option) Service {
	s := &service{
		repo:      repo,
		labs:      labs,
		equipment: equipment,
		now:       time.Now,
		loc:       time.UTC,
		log:       logger.With(zap.String("component", "booking")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, actor Actor, req CreateRequest) (*Booking, error) {
	b, err := s.create(ctx, actor, req)
	s.observe("create", err)
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("laboratory_id", b.LaboratoryID),
		zap.String("user_id", b.UserID),
		zap.String("slot", b.Slot().DateString()+" "+b.Window.String()),
	)
	s.afterWrite(ctx, EventCreated, actor, b, b.Slot())
	return b, nil
}

func (s *service) create(ctx context.Context, actor Actor, req CreateRequest) (*Booking, error) {
	if !Can(actor, ActionCreate, nil) {
		return nil, ErrPermissionDenied
	}

	slot, err := ParseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if err := validateFuture(slot, s.now(), s.loc); err != nil {
		return nil, err
	}
	purpose, err := normalizePurpose(req.Purpose)
	if err != nil {
		return nil, err
	}

	lab, err := s.laboratory(ctx, req.LaboratoryID)
	if err != nil {
		return nil, err
	}
	if lab.Status != laboratory.StatusAvailable {
		return nil, ErrLaboratoryUnavailable
	}

	// The equipment directory runs on its own connection, never inside InTx.
	equipmentIDs, err := checkEquipment(ctx, s.equipment, lab.ID, req.EquipmentIDs)
	if err != nil {
		return nil, err
	}

	var created *Booking
	err = s.repo.InTx(ctx, func(tx Store) error {
		if err := s.lockDay(ctx, tx, lab.ID, slot.Date); err != nil {
			return err
		}
		if err := s.ensureFree(ctx, tx, lab.ID, slot, ""); err != nil {
			return err
		}

		b := &Booking{
			UserID:       actor.UserID,
			LaboratoryID: lab.ID,
			Date:         slot.Date,
			Window:       slot.Window,
			Purpose:      purpose,
			EquipmentIDs: equipmentIDs,
			Status:       StatusPending,
		}
		if err := tx.Create(ctx, b); err != nil {
			return err
		}

		created, err = tx.GetByID(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, apperror.Persistence(err, "failed to create booking")
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, actor Actor, id string) (*Booking, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err, "failed to get booking")
	}
	if !Can(actor, ActionView, b) {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

// List forces requesters onto their own bookings.
func (s *service) List(ctx context.Context, actor Actor, filter Filter) ([]*Booking, int, error) {
	if actor.UserID == "" {
		return nil, 0, ErrPermissionDenied
	}
	if !Can(actor, ActionViewAll, nil) {
		filter.UserID = actor.UserID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}

	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Persistence(err, "failed to list bookings")
	}
	return bookings, total, nil
}

// CheckConflict previews the conflicts of a window without writing or locking.
func (s *service) CheckConflict(ctx context.Context, req CheckConflictRequest) ([]*Booking, error) {
	slot, err := ParseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	lab, err := s.laboratory(ctx, req.LaboratoryID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListActiveForDay(ctx, lab.ID, slot.Date, req.ExcludeID)
	if err != nil {
		return nil, apperror.Persistence(err, "failed to check conflicts")
	}
	return FindConflicts(slot.Window, existing, req.ExcludeID), nil
}

func (s *service) Approve(ctx context.Context, actor Actor, id string) (*Booking, error) {
	_, after, err := s.mutate(ctx, id, func(tx Store, b *Booking) error {
		if !Can(actor, ActionApprove, b) {
			return ErrPermissionDenied
		}
		if b.Status != StatusPending {
			return ErrInvalidStateTransition
		}
		b.Status = StatusConfirmed
		return tx.Update(ctx, b)
	})
	s.observe("approve", err)
	if err != nil {
		return nil, err
	}

	s.log.Info("booking approved", zap.String("booking_id", id), zap.String("actor_id", actor.UserID))
	s.afterWrite(ctx, EventApproved, actor, after, after.Slot())
	return after, nil
}

func (s *service) Reject(ctx context.Context, actor Actor, id string) (*Booking, error) {
	_, after, err := s.mutate(ctx, id, func(tx Store, b *Booking) error {
		if !Can(actor, ActionReject, b) {
			return ErrPermissionDenied
		}
		if b.Status.Terminal() {
			return ErrInvalidStateTransition
		}
		b.Status = StatusCancelled
		return tx.Update(ctx, b)
	})
	s.observe("reject", err)
	if err != nil {
		return nil, err
	}

	s.log.Info("booking rejected", zap.String("booking_id", id), zap.String("actor_id", actor.UserID))
	s.afterWrite(ctx, EventRejected, actor, after, after.Slot())
	return after, nil
}

// Edit applies a partial update. Time changes re-run the window, future and conflict
// checks under the lock of the target day; equipment changes re-run the equipment check.
func (s *service) Edit(ctx context.Context, actor Actor, id string, req EditRequest) (*Booking, error) {
	before, after, err := s.edit(ctx, actor, id, req)
	s.observe("edit", err)
	if err != nil {
		return nil, err
	}

	s.log.Info("booking updated", zap.String("booking_id", id), zap.String("actor_id", actor.UserID))
	s.afterWrite(ctx, EventUpdated, actor, after, before.Slot(), after.Slot())
	return after, nil
}

func (s *service) edit(ctx context.Context, actor Actor, id string, req EditRequest) (*Booking, *Booking, error) {
	if req.empty() {
		return nil, nil, ErrEmptyEdit
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, nil, ErrInvalidStatus
	}

	var purpose string
	if req.Purpose != nil {
		p, err := normalizePurpose(*req.Purpose)
		if err != nil {
			return nil, nil, err
		}
		purpose = p
	}

	var equipmentIDs []string
	if req.EquipmentIDs != nil {
		ids, err := s.editEquipment(ctx, actor, id, *req.EquipmentIDs)
		if err != nil {
			return nil, nil, err
		}
		equipmentIDs = ids
	}

	return s.mutate(ctx, id, func(tx Store, b *Booking) error {
		if !Can(actor, ActionEdit, b) {
			return ErrPermissionDenied
		}
		if req.Status != nil && !Can(actor, ActionSetStatus, b) {
			return ErrPermissionDenied
		}
		if b.Status.Terminal() {
			return ErrInvalidStateTransition
		}

		if req.touchesTime() {
			slot, err := ParseSlot(
				valueOr(req.Date, b.Slot().DateString()),
				valueOr(req.StartTime, b.Window.Start.String()),
				valueOr(req.EndTime, b.Window.End.String()),
			)
			if err != nil {
				return err
			}
			if err := validateFuture(slot, s.now(), s.loc); err != nil {
				return err
			}
			if err := s.lockDay(ctx, tx, b.LaboratoryID, slot.Date); err != nil {
				return err
			}
			if err := s.ensureFree(ctx, tx, b.LaboratoryID, slot, b.ID); err != nil {
				return err
			}
			b.Date = slot.Date
			b.Window = slot.Window
		}

		if req.Purpose != nil {
			b.Purpose = purpose
		}

		if req.EquipmentIDs != nil {
			b.EquipmentIDs = equipmentIDs
		}

		if req.Status != nil {
			b.Status = *req.Status
		}

		return tx.Update(ctx, b)
	})
}

// editEquipment validates a new equipment list before the edit transaction opens.
// A booking never changes laboratory, so the unlocked read is enough to resolve it;
// permission and status are checked again under the row lock.
func (s *service) editEquipment(ctx context.Context, actor Actor, id string, ids []string) ([]string, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err, "failed to get booking")
	}
	if !Can(actor, ActionEdit, current) {
		return nil, ErrPermissionDenied
	}
	if current.Status.Terminal() {
		return nil, ErrInvalidStateTransition
	}
	return checkEquipment(ctx, s.equipment, current.LaboratoryID, ids)
}

// CancelOrDelete removes a future booking when staff asks for it.
// Every other permitted call soft-terminates the booking to cancelled.
func (s *service) CancelOrDelete(ctx context.Context, actor Actor, id string) (*Outcome, error) {
	var deleted bool
	before, after, err := s.mutate(ctx, id, func(tx Store, b *Booking) error {
		if !Can(actor, ActionCancel, b) {
			return ErrPermissionDenied
		}
		if b.Status.Terminal() {
			return ErrInvalidStateTransition
		}

		if Can(actor, ActionHardDelete, b) && b.Slot().StartsAfter(s.now(), s.loc) {
			deleted = true
			return tx.Delete(ctx, b.ID)
		}

		b.Status = StatusCancelled
		return tx.Update(ctx, b)
	})
	s.observe("cancel", err)
	if err != nil {
		return nil, err
	}

	if deleted {
		s.log.Info("booking deleted", zap.String("booking_id", id), zap.String("actor_id", actor.UserID))
		s.afterWrite(ctx, EventDeleted, actor, before, before.Slot())
		return &Outcome{Deleted: true, Booking: before}, nil
	}

	s.log.Info("booking cancelled", zap.String("booking_id", id), zap.String("actor_id", actor.UserID))
	s.afterWrite(ctx, EventCancelled, actor, after, after.Slot())
	return &Outcome{Booking: after}, nil
}

func (s *service) GetAvailability(ctx context.Context, labID, date string) ([]TimelineSlot, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	lab, err := s.laboratory(ctx, labID)
	if err != nil {
		return nil, err
	}

	// Read the generation before the bookings. A write committing in between bumps
	// past this entry, so a stale timeline stored below is never read.
	var entry string
	if s.cache != nil {
		dayKey := timelineKey(lab.ID, day)
		gen, err := s.cache.Generation(ctx, dayKey)
		if err != nil {
			s.metrics.ObserveCache("error")
			s.log.Warn("timeline generation read failed", zap.String("key", dayKey), zap.Error(err))
		} else {
			entry = timelineEntryKey(dayKey, gen)
			var cached []TimelineSlot
			err := s.cache.GetJSON(ctx, entry, &cached)
			switch {
			case err == nil && len(cached) == TimelineSlotCount:
				s.metrics.ObserveCache("hit")
				return cached, nil
			case err == nil || errors.Is(err, cache.ErrCacheMiss):
				s.metrics.ObserveCache("miss")
			default:
				s.metrics.ObserveCache("error")
				s.log.Warn("timeline cache read failed", zap.String("key", entry), zap.Error(err))
			}
		}
	}

	bookings, err := s.repo.ListActiveForDay(ctx, lab.ID, day, "")
	if err != nil {
		return nil, apperror.Persistence(err, "failed to load bookings")
	}
	slots := BuildTimeline(bookings)

	if entry != "" {
		if err := s.cache.SetJSON(ctx, entry, slots); err != nil {
			s.log.Warn("timeline cache write failed", zap.String("key", entry), zap.Error(err))
		}
	}
	return slots, nil
}

// mutate loads and row-locks a booking, lets fn change it, and commits.
// It returns copies of the booking before and after fn.
func (s *service) mutate(ctx context.Context, id string, fn func(tx Store, b *Booking) error) (*Booking, *Booking, error) {
	if !validID(id) {
		return nil, nil, ErrNotFound
	}

	var before, after *Booking
	err := s.repo.InTx(ctx, func(tx Store) error {
		b, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before = b.Clone()
		if err := fn(tx, b); err != nil {
			return err
		}
		after = b
		return nil
	})
	if err != nil {
		return nil, nil, apperror.Persistence(err, "failed to update booking")
	}
	return before, after, nil
}

func (s *service) ensureFree(ctx context.Context, tx Store, labID string, slot Slot, excludeID string) error {
	existing, err := tx.ListActiveForDay(ctx, labID, slot.Date, excludeID)
	if err != nil {
		return err
	}
	if conflicts := FindConflicts(slot.Window, existing, excludeID); len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

func (s *service) lockDay(ctx context.Context, tx Store, labID string, date time.Time) error {
	start := time.Now()
	err := tx.LockLabDay(ctx, labID, date)
	s.metrics.ObserveLockWait(time.Since(start).Seconds())
	return err
}

func (s *service) laboratory(ctx context.Context, id string) (*laboratory.Laboratory, error) {
	if !validID(id) {
		return nil, ErrLaboratoryNotFound
	}
	lab, err := s.labs.GetByID(ctx, id)
	if err != nil {
		if appErr, ok := apperror.As(err); ok && appErr.Kind == apperror.KindNotFound {
			return nil, ErrLaboratoryNotFound
		}
		return nil, apperror.Persistence(err, "failed to get laboratory")
	}
	return lab, nil
}

func (s *service) afterWrite(ctx context.Context, eventType string, actor Actor, b *Booking, touched ...Slot) {
	if s.cache != nil {
		s.invalidateTimelines(ctx, b.LaboratoryID, touched)
	}

	if s.events != nil {
		ev := newEvent(eventType, actor, b, s.now())
		if err := s.events.PublishJSON(ctx, eventType, ev); err != nil {
			s.log.Warn("booking event publish failed",
				zap.String("event", eventType),
				zap.String("booking_id", b.ID),
				zap.Error(err),
			)
		}
	}
}

// invalidateTimelines moves every touched day to a new generation and drops the
// entry of the previous one.
func (s *service) invalidateTimelines(ctx context.Context, labID string, touched []Slot) {
	seen := make(map[string]struct{}, len(touched))
	for _, slot := range touched {
		dayKey := timelineKey(labID, slot.Date)
		if _, dup := seen[dayKey]; dup {
			continue
		}
		seen[dayKey] = struct{}{}

		gen, err := s.cache.Bump(ctx, dayKey)
		if err != nil {
			s.log.Warn("timeline generation bump failed", zap.String("key", dayKey), zap.Error(err))
			continue
		}
		stale := timelineEntryKey(dayKey, gen-1)
		if err := s.cache.Delete(ctx, stale); err != nil {
			s.log.Warn("timeline cache invalidation failed", zap.String("key", stale), zap.Error(err))
		}
	}
}

func (s *service) observe(operation string, err error) {
	s.metrics.ObserveBooking(operation, outcomeOf(err))
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	appErr, ok := apperror.As(err)
	if !ok {
		return metrics.OutcomeError
	}
	switch appErr.Kind {
	case apperror.KindValidation, apperror.KindNotFound, apperror.KindForeignResource:
		return metrics.OutcomeValidation
	case apperror.KindConflict:
		return metrics.OutcomeConflict
	case apperror.KindPermission, apperror.KindInvalidStateTransition:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func normalizePurpose(p string) (string, error) {
	p = strings.TrimSpace(p)
	if n := utf8.RuneCountInString(p); n == 0 || n > MaxPurposeLength {
		return "", ErrInvalidPurpose
	}
	return p, nil
}

func timelineKey(labID string, day time.Time) string {
	return "timeline:" + labID + ":" + day.Format(DateLayout)
}

func timelineEntryKey(dayKey string, gen int64) string {
	return dayKey + ":v" + strconv.FormatInt(gen, 10)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func valueOr(p *string, def string) string {
	if p != nil {
		return *p
	}
	return def
}
