package car

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, c *Car) error
	GetByID(ctx context.Context, id string) (*Car, error)
	List(ctx context.Context, filter Filter) ([]*Car, int, error)
	Update(ctx context.Context, c *Car) error
	Deactivate(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var carColumns = []string{
	"id", "seller_id", "title", "make", "model", "year", "mileage", "location",
	"listing_type", "daily_rate_cents", "price_cents", "currency", "description",
	"is_active", "created_at", "updated_at",
}

func scanCar(row pgx.Row) (*Car, error) {
	var c Car
	if err := row.Scan(
		&c.ID, &c.SellerID, &c.Title, &c.Make, &c.Model, &c.Year, &c.Mileage, &c.Location,
		&c.ListingType, &c.DailyRateCents, &c.PriceCents, &c.Currency, &c.Description,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgxRepository) Create(ctx context.Context, c *Car) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.cars").
		Columns(
			"seller_id", "title", "make", "model", "year", "mileage", "location",
			"listing_type", "daily_rate_cents", "price_cents", "currency", "description", "is_active",
		).
		Values(
			c.SellerID, c.Title, c.Make, c.Model, c.Year, c.Mileage, c.Location,
			c.ListingType, c.DailyRateCents, c.PriceCents, c.Currency, c.Description, c.IsActive,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create car query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Car, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(carColumns...).
		From("public.cars").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get car query failed: %w", err)
	}

	c, err := scanCar(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get car failed: %w", err)
	}
	return c, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Car, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	cols := append(append([]string{}, carColumns...), "count(*) OVER() AS total_count")
	query := psql.Select(cols...).From("public.cars")

	if !filter.IncludeInactive {
		query = query.Where(squirrel.Eq{"is_active": true})
	}
	if filter.SellerID != "" {
		query = query.Where(squirrel.Eq{"seller_id": filter.SellerID})
	}
	if filter.ListingType != "" {
		query = query.Where(squirrel.Eq{"listing_type": filter.ListingType})
	}
	if filter.Make != "" {
		query = query.Where(squirrel.ILike{"make": "%" + filter.Make + "%"})
	}
	if filter.MaxDailyRateCents > 0 {
		query = query.Where(squirrel.LtOrEq{"daily_rate_cents": filter.MaxDailyRateCents})
	}

	// Sorting
	orderBy := "created_at"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
	}

	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}

	query = query.OrderBy(orderBy + " " + orderDir)

	// Pagination
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
		return nil, 0, fmt.Errorf("build list cars query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cars failed: %w", err)
	}
	defer rows.Close()

	var cars []*Car
	var total int

	for rows.Next() {
		var c Car
		if err := rows.Scan(
			&c.ID, &c.SellerID, &c.Title, &c.Make, &c.Model, &c.Year, &c.Mileage, &c.Location,
			&c.ListingType, &c.DailyRateCents, &c.PriceCents, &c.Currency, &c.Description,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan car failed: %w", err)
		}
		cars = append(cars, &c)
	}

	return cars, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, c *Car) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.cars").
		Set("title", c.Title).
		Set("make", c.Make).
		Set("model", c.Model).
		Set("year", c.Year).
		Set("mileage", c.Mileage).
		Set("location", c.Location).
		Set("daily_rate_cents", c.DailyRateCents).
		Set("price_cents", c.PriceCents).
		Set("description", c.Description).
		Set("is_active", c.IsActive).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update car query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update car failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Deactivate(ctx context.Context, id string) error {
	// Listings are retired, never deleted, so existing bookings keep their
	// car reference.
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.cars").
		Set("is_active", false).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deactivate car query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deactivate car failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
