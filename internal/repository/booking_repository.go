package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arealivre/areas-api/internal/domain"
)

type BookingRepository interface {
	// CreateIfAvailable inserts the booking after re-checking date
	// availability under a per-area lock, closing the check-then-act
	// window between a standalone conflict check and the write.
	CreateIfAvailable(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	HasConflict(ctx context.Context, areaID string, checkIn, checkOut time.Time, excludeBookingID string) (bool, error)
	ListByGuestUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListByArea(ctx context.Context, areaID string) ([]domain.Booking, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error)
	CountHolding(ctx context.Context, areaID string) (int, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, area_id, guest_kind, guest_id,
check_in, check_out, guests, total_price, status, created_at, updated_at`

// Raised by the bookings_no_overlap exclusion constraint.
const exclusionViolation = "23P01"

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.AreaID, &b.Guest.Kind, &b.Guest.ID,
		&b.CheckIn, &b.CheckOut, &b.Guests, &b.TotalPrice, &b.Status,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// conflictCond matches bookings holding dates that overlap the
// half-open [check_in, check_out) candidate interval.
const conflictCond = `area_id = $1
	AND status IN ('pending','confirmed')
	AND check_in < $3 AND check_out > $2`

func (r *bookingRepository) CreateIfAvailable(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Serializes concurrent creations for the same area; released at
	// commit or rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, booking.AreaID); err != nil {
		return nil, err
	}

	var conflicts int
	err = tx.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE `+conflictCond,
		booking.AreaID, booking.CheckIn, booking.CheckOut).Scan(&conflicts)
	if err != nil {
		return nil, err
	}
	if conflicts > 0 {
		return nil, domain.Conflictf("area is already booked for the selected dates")
	}

	const q = `INSERT INTO bookings (
		id, area_id, guest_kind, guest_id, check_in, check_out, guests, total_price, status
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	RETURNING ` + bookingCols

	created, err := scanBooking(tx.QueryRow(ctx, q,
		booking.ID, booking.AreaID, booking.Guest.Kind, booking.Guest.ID,
		booking.CheckIn, booking.CheckOut, booking.Guests, booking.TotalPrice, booking.Status,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return nil, domain.Conflictf("area is already booked for the selected dates")
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) HasConflict(ctx context.Context, areaID string, checkIn, checkOut time.Time, excludeBookingID string) (bool, error) {
	q := `SELECT EXISTS (SELECT 1 FROM bookings WHERE ` + conflictCond
	args := []any{areaID, checkIn, checkOut}
	if excludeBookingID != "" {
		q += ` AND id <> $4`
		args = append(args, excludeBookingID)
	}
	q += `)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, args...).Scan(&exists)
	return exists, err
}

func (r *bookingRepository) ListByGuestUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE guest_kind='user' AND guest_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

func (r *bookingRepository) ListByArea(ctx context.Context, areaID string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE area_id=$1 ORDER BY check_in DESC`
	return r.list(ctx, q, areaID)
}

func (r *bookingRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE area_id IN (SELECT id FROM areas WHERE owner_id=$1)
		ORDER BY created_at DESC`
	return r.list(ctx, q, ownerID)
}

func (r *bookingRepository) list(ctx context.Context, q string, args ...any) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// UpdateStatus moves a booking between statuses. The expected current
// status is part of the predicate, so concurrent transitions on the
// same booking cannot both win.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error) {
	const q = `UPDATE bookings SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id, from, to)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// CountHolding counts pending and confirmed bookings for an area; used
// to block hard deletion of areas with active reservations.
func (r *bookingRepository) CountHolding(ctx context.Context, areaID string) (int, error) {
	const q = `SELECT count(*) FROM bookings WHERE area_id=$1 AND status IN ('pending','confirmed')`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, q, areaID).Scan(&count)
	return count, err
}
