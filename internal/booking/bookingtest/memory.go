// Package bookingtest provides in-memory collaborators for exercising booking.Service without Postgres.
package bookingtest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AngelG-buaa/DB/internal/booking"
	"github.com/AngelG-buaa/DB/internal/laboratory"
	"github.com/AngelG-buaa/DB/internal/pkg/cache"
)

// Repository is an in-memory booking.Repository.
// Transactions are serialized by one mutex and rolled back from a snapshot on error.
type Repository struct {
	txMu sync.Mutex

	mu       sync.Mutex
	bookings map[string]*booking.Booking

	// Users and Labs resolve the joined display names.
	Users map[string]string
	Labs  map[string]string

	Now func() time.Time

	LockCalls int
	inTx      bool
}

func NewRepository() *Repository {
	return &Repository{
		bookings: make(map[string]*booking.Booking),
		Users:    make(map[string]string),
		Labs:     make(map[string]string),
		Now:      time.Now,
	}
}

func (r *Repository) InTx(ctx context.Context, fn func(tx booking.Store) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := make(map[string]*booking.Booking, len(r.bookings))
	for id, b := range r.bookings {
		snapshot[id] = b.Clone()
	}
	r.inTx = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inTx = false
		r.mu.Unlock()
	}()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.bookings = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

// InTransaction reports whether an InTx callback is running.
func (r *Repository) InTransaction() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inTx
}

// Put stores b as is, bypassing every check. It is meant for seeding.
func (r *Repository) Put(b *booking.Booking) *booking.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.Now()
		b.UpdatedAt = b.CreatedAt
	}
	r.fillNames(b)
	r.bookings[b.ID] = b.Clone()
	return b
}

// Len returns the number of stored bookings.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *Repository) GetByIDForUpdate(ctx context.Context, id string) (*booking.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *Repository) List(ctx context.Context, filter booking.Filter) ([]*booking.Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []*booking.Booking
	for _, b := range r.bookings {
		if filter.LaboratoryID != "" && b.LaboratoryID != filter.LaboratoryID {
			continue
		}
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.DateFrom != nil && b.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && b.Date.After(*filter.DateTo) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Purpose), search) &&
			!strings.Contains(strings.ToLower(b.UserName), search) &&
			!strings.Contains(strings.ToLower(b.LaboratoryName), search) {
			continue
		}
		out = append(out, b.Clone())
	}

	// Ordered by day and start like the default SQL ordering.
	asc := filter.SortOrder == "ASC"
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if asc {
			a, b = b, a
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Window.Start > b.Window.Start
	})

	total := len(out)
	if filter.PageSize > 0 {
		page := max(filter.Page, 1)
		from := min((page-1)*filter.PageSize, total)
		to := min(from+filter.PageSize, total)
		out = out[from:to]
	}
	return out, total, nil
}

func (r *Repository) ListActiveForDay(ctx context.Context, labID string, date time.Time, excludeID string) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeForDay(labID, date, excludeID), nil
}

func (r *Repository) activeForDay(labID string, date time.Time, excludeID string) []*booking.Booking {
	var out []*booking.Booking
	for _, b := range r.bookings {
		if b.LaboratoryID != labID || !b.Date.Equal(date) || !b.Status.Active() {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window.Start < out[j].Window.Start })
	return out
}

// LockLabDay only counts calls; InTx already serializes writers.
func (r *Repository) LockLabDay(ctx context.Context, labID string, date time.Time) error {
	r.mu.Lock()
	r.LockCalls++
	r.mu.Unlock()
	return nil
}

func (r *Repository) Create(ctx context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.Status.Active() && r.overlapsStored(b) {
		return booking.ErrTimeConflict
	}

	b.ID = uuid.NewString()
	b.CreatedAt = r.Now()
	b.UpdatedAt = b.CreatedAt
	r.fillNames(b)
	r.bookings[b.ID] = b.Clone()
	return nil
}

func (r *Repository) Update(ctx context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.ID]; !ok {
		return booking.ErrNotFound
	}
	if b.Status.Active() && r.overlapsStored(b) {
		return booking.ErrTimeConflict
	}

	b.UpdatedAt = r.Now()
	r.fillNames(b)
	r.bookings[b.ID] = b.Clone()
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return booking.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

// overlapsStored mirrors the exclusion constraint of the bookings table.
func (r *Repository) overlapsStored(b *booking.Booking) bool {
	existing := r.activeForDay(b.LaboratoryID, b.Date, b.ID)
	return len(booking.FindConflicts(b.Window, existing, b.ID)) > 0
}

func (r *Repository) fillNames(b *booking.Booking) {
	if name, ok := r.Users[b.UserID]; ok {
		b.UserName = name
	}
	if name, ok := r.Labs[b.LaboratoryID]; ok {
		b.LaboratoryName = name
	}
}

// Laboratories is an in-memory booking.LaboratoryDirectory.
type Laboratories map[string]*laboratory.Laboratory

func (l Laboratories) GetByID(ctx context.Context, id string) (*laboratory.Laboratory, error) {
	lab, ok := l[id]
	if !ok {
		return nil, laboratory.ErrNotFound
	}
	cp := *lab
	return &cp, nil
}

type Item struct {
	LaboratoryID string
	Available    bool
}

// Equipment is an in-memory booking.EquipmentDirectory keyed by equipment id.
type Equipment map[string]Item

func (e Equipment) CountAvailableInLab(ctx context.Context, labID string, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if it, ok := e[id]; ok && it.Available && it.LaboratoryID == labID {
			n++
		}
	}
	return n, nil
}

// Publisher records every published event.
type Publisher struct {
	mu     sync.Mutex
	Events []booking.Event
	Err    error
}

func (p *Publisher) PublishJSON(ctx context.Context, routingKey string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := v.(booking.Event); ok {
		p.Events = append(p.Events, ev)
	}
	return p.Err
}

// Types returns the recorded event types in publish order.
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Events))
	for i, ev := range p.Events {
		out[i] = ev.Type
	}
	return out
}

// Cache is an in-memory booking.TimelineCache that stores JSON like the Redis one.
type Cache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	generations map[string]int64
}

func NewCache() *Cache {
	return &Cache{
		entries:     make(map[string][]byte),
		generations: make(map[string]int64),
	}
}

func (c *Cache) GetJSON(ctx context.Context, key string, dst any) error {
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dst)
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *Cache) Generation(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key], nil
}

func (c *Cache) Bump(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	return c.generations[key], nil
}

// Len returns the number of stored entries, generations excluded.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
