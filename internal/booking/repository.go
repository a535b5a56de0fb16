package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the booking persistence used inside and outside transactions.
type Store interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	// GetByIDForUpdate also locks the row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// ListActiveForDay returns pending and confirmed bookings of a laboratory/day ordered by start.
	ListActiveForDay(ctx context.Context, labID string, date time.Time, excludeID string) ([]*Booking, error)
	// LockLabDay serializes writers of one laboratory/day until the transaction ends.
	LockLabDay(ctx context.Context, labID string, date time.Time) error
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id string) error
}

// Repository is a Store that can open transactions.
type Repository interface {
	Store
	// InTx runs fn in one read-committed transaction, committing only when fn returns nil.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxStore struct {
	q querier
}

type pgxRepository struct {
	pgxStore
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pgxStore: pgxStore{q: pool}, pool: pool}
}

func (r *pgxRepository) InTx(ctx context.Context, fn func(tx Store) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin booking transaction failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgxStore{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapWriteError(err, "commit booking transaction failed")
	}
	return nil
}

var bookingColumns = []string{
	"b.id", "b.user_id", "COALESCE(u.display_name, u.email)",
	"b.laboratory_id", "l.name",
	"b.booking_date", "b.start_time", "b.end_time",
	"b.purpose", "b.status", "b.created_at", "b.updated_at",
	"ARRAY(SELECT be.equipment_id::text FROM public.booking_equipment be WHERE be.booking_id = b.id ORDER BY be.position)",
}

func selectBookings(extra ...string) squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	cols := append(append([]string{}, bookingColumns...), extra...)
	return psql.Select(cols...).
		From("public.bookings b").
		Join("public.users u ON b.user_id = u.id").
		Join("public.laboratories l ON b.laboratory_id = l.id")
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	var start, end pgtype.Time
	dest := []any{
		&b.ID, &b.UserID, &b.UserName,
		&b.LaboratoryID, &b.LaboratoryName,
		&b.Date, &start, &end,
		&b.Purpose, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		&b.EquipmentIDs,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.Window = Window{Start: fromPgTime(start), End: fromPgTime(end)}
	if b.EquipmentIDs == nil {
		b.EquipmentIDs = []string{}
	}
	return &b, nil
}

func toPgTime(t TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Duration() / time.Microsecond), Valid: true}
}

func fromPgTime(t pgtype.Time) TimeOfDay {
	return TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond / time.Minute)
}

// mapWriteError translates constraint violations that carry domain meaning.
func mapWriteError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return ErrTimeConflict
		case pgerrcode.CheckViolation:
			return ErrInvalidWindow
		case pgerrcode.ForeignKeyViolation:
			return ErrForeignEquipment
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (r *pgxStore) getByID(ctx context.Context, id string, forUpdate bool) (*Booking, error) {
	query := selectBookings().Where(squirrel.Eq{"b.id": id})
	if forUpdate {
		query = query.Suffix("FOR UPDATE OF b")
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxStore) GetByID(ctx context.Context, id string) (*Booking, error) {
	return r.getByID(ctx, id, false)
}

func (r *pgxStore) GetByIDForUpdate(ctx context.Context, id string) (*Booking, error) {
	return r.getByID(ctx, id, true)
}

var bookingSortColumns = map[string]string{
	"date":       "b.booking_date",
	"created_at": "b.created_at",
	"status":     "b.status",
}

func (r *pgxStore) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := selectBookings("count(*) OVER() AS total_count")

	if filter.LaboratoryID != "" {
		query = query.Where(squirrel.Eq{"b.laboratory_id": filter.LaboratoryID})
	}
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	if filter.DateFrom != nil {
		query = query.Where(squirrel.GtOrEq{"b.booking_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		query = query.Where(squirrel.LtOrEq{"b.booking_date": *filter.DateTo})
	}
	if filter.Search != "" {
		like := "%" + escapeLike(filter.Search) + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"b.purpose": like},
			squirrel.ILike{"COALESCE(u.display_name, u.email)": like},
			squirrel.ILike{"l.name": like},
		})
	}

	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	if col, ok := bookingSortColumns[filter.SortBy]; ok && col != "b.booking_date" {
		query = query.OrderBy(col + " " + orderDir)
	} else {
		query = query.OrderBy("b.booking_date "+orderDir, "b.start_time "+orderDir)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern (backslash is the default escape).
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *pgxStore) ListActiveForDay(ctx context.Context, labID string, date time.Time, excludeID string) ([]*Booking, error) {
	query := selectBookings().
		Where(squirrel.Eq{"b.laboratory_id": labID}).
		Where(squirrel.Eq{"b.booking_date": date}).
		Where(squirrel.Eq{"b.status": ActiveStatuses}).
		OrderBy("b.start_time", "b.created_at")
	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"b.id": excludeID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build day bookings query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list day bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *pgxStore) LockLabDay(ctx context.Context, labID string, date time.Time) error {
	key := labID + "/" + date.Format(DateLayout)
	if _, err := r.q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key); err != nil {
		return fmt.Errorf("lock laboratory day failed: %w", err)
	}
	return nil
}

func (r *pgxStore) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Insert("public.bookings").
		Columns("user_id", "laboratory_id", "booking_date", "start_time", "end_time", "purpose", "status").
		Values(b.UserID, b.LaboratoryID, b.Date, toPgTime(b.Window.Start), toPgTime(b.Window.End), b.Purpose, b.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.q.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return mapWriteError(err, "create booking failed")
	}

	return r.insertEquipment(ctx, b.ID, b.EquipmentIDs)
}

func (r *pgxStore) insertEquipment(ctx context.Context, bookingID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	insert := psql.Insert("public.booking_equipment").Columns("booking_id", "equipment_id", "position")
	for i, id := range ids {
		insert = insert.Values(bookingID, id, i)
	}
	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build booking equipment query failed: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return mapWriteError(err, "insert booking equipment failed")
	}
	return nil
}

// Update writes every mutable field and replaces the equipment list.
func (r *pgxStore) Update(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Update("public.bookings").
		Set("booking_date", b.Date).
		Set("start_time", toPgTime(b.Window.Start)).
		Set("end_time", toPgTime(b.Window.End)).
		Set("purpose", b.Purpose).
		Set("status", b.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := r.q.QueryRow(ctx, sql, args...).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError(err, "update booking failed")
	}

	del, delArgs, err := psql.Delete("public.booking_equipment").
		Where(squirrel.Eq{"booking_id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear booking equipment query failed: %w", err)
	}
	if _, err := r.q.Exec(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("clear booking equipment failed: %w", err)
	}
	return r.insertEquipment(ctx, b.ID, b.EquipmentIDs)
}

func (r *pgxStore) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
