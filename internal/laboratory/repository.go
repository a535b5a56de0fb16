package laboratory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access methods for laboratories.
type Repository interface {
	Create(ctx context.Context, lab *Laboratory) error
	GetByID(ctx context.Context, id string) (*Laboratory, error)
	List(ctx context.Context, filter Filter) ([]*Laboratory, int, error)
	Update(ctx context.Context, lab *Laboratory) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var labColumns = []string{
	"l.id", "l.name", "l.location", "l.capacity", "l.description", "l.status",
	"l.created_at", "l.updated_at",
}

func (r *pgxRepository) Create(ctx context.Context, lab *Laboratory) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.laboratories").
		Columns("name", "location", "capacity", "description", "status").
		Values(lab.Name, lab.Location, lab.Capacity, lab.Description, lab.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create laboratory query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&lab.ID, &lab.CreatedAt, &lab.UpdatedAt); err != nil {
		return fmt.Errorf("create laboratory failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Laboratory, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(labColumns...).
		From("public.laboratories l").
		Where(squirrel.Eq{"l.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get laboratory query failed: %w", err)
	}

	var l Laboratory
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&l.ID, &l.Name, &l.Location, &l.Capacity, &l.Description, &l.Status,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get laboratory failed: %w", err)
	}
	return &l, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Laboratory, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(labColumns, "count(*) OVER() AS total_count")...).
		From("public.laboratories l")

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"l.name": like},
			squirrel.ILike{"l.location": like},
		})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"l.status": filter.Status})
	}

	// SortBy is restricted by handler validation.
	orderBy := "l.name"
	if filter.SortBy != "" {
		orderBy = "l." + filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder == "DESC" {
		orderDir = "DESC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

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
		return nil, 0, fmt.Errorf("build list laboratories query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list laboratories failed: %w", err)
	}
	defer rows.Close()

	var labs []*Laboratory
	var total int
	for rows.Next() {
		var l Laboratory
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Location, &l.Capacity, &l.Description, &l.Status,
			&l.CreatedAt, &l.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan laboratory failed: %w", err)
		}
		labs = append(labs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate laboratories failed: %w", err)
	}

	return labs, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, lab *Laboratory) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.laboratories").
		Set("name", lab.Name).
		Set("location", lab.Location).
		Set("capacity", lab.Capacity).
		Set("description", lab.Description).
		Set("status", lab.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": lab.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update laboratory query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&lab.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update laboratory failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.laboratories").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete laboratory query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete laboratory failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
