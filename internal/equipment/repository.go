package equipment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, eq *Equipment) error
	GetByID(ctx context.Context, id string) (*Equipment, error)
	List(ctx context.Context, filter Filter) ([]*Equipment, int, error)
	Update(ctx context.Context, eq *Equipment) error
	Delete(ctx context.Context, id string) error
	CountAvailableInLab(ctx context.Context, labID string, ids []string) (int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var equipmentColumns = []string{
	"e.id", "e.laboratory_id", "l.name", "e.name", "e.model", "e.serial_number", "e.status",
	"e.created_at", "e.updated_at",
}

func selectEquipment(extra ...string) squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	cols := append(append([]string{}, equipmentColumns...), extra...)
	return psql.Select(cols...).
		From("public.equipment e").
		Join("public.laboratories l ON e.laboratory_id = l.id")
}

func scanEquipment(row pgx.Row, extra ...any) (*Equipment, error) {
	var e Equipment
	dest := []any{
		&e.ID, &e.LaboratoryID, &e.LaboratoryName, &e.Name, &e.Model, &e.SerialNumber, &e.Status,
		&e.CreatedAt, &e.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &e, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrSerialTaken
		case pgerrcode.ForeignKeyViolation:
			return ErrInvalidLaboratory
		}
	}
	return err
}

func (r *pgxRepository) Create(ctx context.Context, eq *Equipment) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.equipment").
		Columns("laboratory_id", "name", "model", "serial_number", "status").
		Values(eq.LaboratoryID, eq.Name, eq.Model, eq.SerialNumber, eq.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create equipment query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&eq.ID, &eq.CreatedAt, &eq.UpdatedAt); err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("create equipment failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Equipment, error) {
	query, args, err := selectEquipment().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get equipment query failed: %w", err)
	}

	eq, err := scanEquipment(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get equipment failed: %w", err)
	}
	return eq, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Equipment, int, error) {
	query := selectEquipment("count(*) OVER() AS total_count")

	if filter.LaboratoryID != "" {
		query = query.Where(squirrel.Eq{"e.laboratory_id": filter.LaboratoryID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"e.status": filter.Status})
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"e.name": like},
			squirrel.ILike{"e.model": like},
			squirrel.ILike{"e.serial_number": like},
		})
	}

	// SortBy is restricted by handler validation.
	orderBy := "e.name"
	if filter.SortBy != "" {
		orderBy = "e." + filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder == "DESC" {
		orderDir = "DESC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "e.id")

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
		return nil, 0, fmt.Errorf("build list equipment query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list equipment failed: %w", err)
	}
	defer rows.Close()

	var result []*Equipment
	var total int
	for rows.Next() {
		eq, err := scanEquipment(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan equipment failed: %w", err)
		}
		result = append(result, eq)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate equipment failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, eq *Equipment) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.equipment").
		Set("name", eq.Name).
		Set("model", eq.Model).
		Set("serial_number", eq.SerialNumber).
		Set("status", eq.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": eq.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update equipment query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&eq.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update equipment failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.equipment").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete equipment query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete equipment failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) CountAvailableInLab(ctx context.Context, labID string, ids []string) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("count(*)").
		From("public.equipment").
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"laboratory_id": labID}).
		Where(squirrel.Eq{"status": StatusAvailable}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count equipment query failed: %w", err)
	}

	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count equipment failed: %w", err)
	}
	return n, nil
}
