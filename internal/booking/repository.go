package booking

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
	// Create inserts a new pending booking. The check-then-insert sequence is
	// serialized per car: the car row is locked for the duration of the
	// transaction and the overlap check is repeated inside it, so two racing
	// requests for the same car cannot both pass.
	Create(ctx context.Context, b *Booking) error

	GetByID(ctx context.Context, id string) (*Booking, error)
	ListByCar(ctx context.Context, carID string) ([]*Booking, error)
	ListByRenter(ctx context.Context, renterID string) ([]*Booking, error)

	// ListActive returns the car's pending and confirmed bookings ordered by
	// start date. Rejected and cancelled bookings never block.
	ListActive(ctx context.Context, carID string) ([]*Booking, error)

	// UpdateStatus persists b.Status without any conflict checking.
	UpdateStatus(ctx context.Context, b *Booking) error

	// Confirm promotes a pending booking to confirmed, re-validating against
	// the car's current confirmed bookings under the car row lock. Returns
	// ErrUnavailable if a conflict arose since the request was made.
	Confirm(ctx context.Context, b *Booking) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const bookingColumns = `
	id, car_id, car_title, renter_id, renter_name, renter_email, renter_phone,
	start_date, end_date, status, notes, created_at, updated_at
`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.CarID, &b.CarTitle, &b.RenterID, &b.RenterName, &b.RenterEmail, &b.RenterPhone,
		&b.StartDate, &b.EndDate, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

// lockCarRow serializes all booking writes for a car. Missing car rows are
// reported as ErrCarNotFound.
func lockCarRow(ctx context.Context, tx pgx.Tx, carID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM public.cars WHERE id = $1 FOR UPDATE`, carID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCarNotFound
		}
		return fmt.Errorf("lock car row failed: %w", err)
	}
	return nil
}

// hasOverlap checks inside the transaction whether any booking with one of
// the given statuses intersects the inclusive range. excludeBookingID skips
// the booking itself during confirmation.
func hasOverlap(ctx context.Context, tx pgx.Tx, carID string, rng DateRange, statuses []string, excludeBookingID string) (bool, error) {
	// Inclusive interval intersection: start <= otherEnd AND otherStart <= end.
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	subQuery := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"car_id": carID}).
		Where(squirrel.Eq{"status": statuses}).
		Where(squirrel.LtOrEq{"start_date": rng.End}).
		Where(squirrel.GtOrEq{"end_date": rng.Start})

	if excludeBookingID != "" {
		subQuery = subQuery.Where(squirrel.NotEq{"id": excludeBookingID})
	}

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	query := "SELECT EXISTS (" + sql + ")"

	var exists bool
	if err := tx.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create booking tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockCarRow(ctx, tx, b.CarID); err != nil {
		return err
	}

	conflict, err := hasOverlap(ctx, tx, b.CarID, b.Range(), []string{string(StatusPending), string(StatusConfirmed)}, "")
	if err != nil {
		return err
	}
	if conflict {
		return ErrUnavailable
	}

	const query = `
		INSERT INTO public.bookings (car_id, car_title, renter_id, renter_name, renter_email, renter_phone, start_date, end_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRow(
		ctx, query,
		b.CarID, b.CarTitle, b.RenterID, b.RenterName, b.RenterEmail, b.RenterPhone,
		b.StartDate, b.EndDate, b.Status, b.Notes,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if isExclusionViolation(err) {
			return ErrUnavailable
		}
		return fmt.Errorf("create booking failed: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM public.bookings WHERE id = $1`

	b, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) ListByCar(ctx context.Context, carID string) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM public.bookings WHERE car_id = $1 ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, carID)
}

func (r *pgxRepository) ListByRenter(ctx context.Context, renterID string) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM public.bookings WHERE renter_id = $1 ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, renterID)
}

func (r *pgxRepository) ListActive(ctx context.Context, carID string) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM public.bookings
		WHERE car_id = $1 AND status IN ('pending', 'confirmed')
		ORDER BY start_date ASC`
	return r.queryBookings(ctx, query, carID)
}

func (r *pgxRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
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
	return bookings, rows.Err()
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, b *Booking) error {
	const query = `
		UPDATE public.bookings
		SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query, b.Status, b.ID).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update booking status failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Confirm(ctx context.Context, b *Booking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin confirm booking tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockCarRow(ctx, tx, b.CarID); err != nil {
		return err
	}

	// A stale pending request must not be approved over a booking that was
	// confirmed in the meantime.
	conflict, err := hasOverlap(ctx, tx, b.CarID, b.Range(), []string{string(StatusConfirmed)}, b.ID)
	if err != nil {
		return err
	}
	if conflict {
		return ErrUnavailable
	}

	const query = `
		UPDATE public.bookings
		SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING updated_at
	`
	if err := tx.QueryRow(ctx, query, StatusConfirmed, b.ID).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isExclusionViolation(err) {
			return ErrUnavailable
		}
		return fmt.Errorf("confirm booking failed: %w", err)
	}
	b.Status = StatusConfirmed

	return tx.Commit(ctx)
}

// isExclusionViolation detects the bookings_no_confirmed_overlap constraint,
// the storage-level backstop for the no-double-booking invariant.
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation
}
