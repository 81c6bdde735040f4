package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/models"
)

type BookingRepo struct {
	DB DBTX
}

const bookingColumns = `id, user_id, truck_id, code, status, delivery_cost, insurance_premium, payment_completed, created_at`

func (r *BookingRepo) CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	const createBooking = `-- name: CreateBooking
	INSERT INTO bookings (user_id, truck_id, code, status, delivery_cost, insurance_premium, payment_completed)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + bookingColumns + `
	`

	if booking.Status == "" {
		booking.Status = models.BookingStatusPending
	}

	rows, _ := r.DB.Query(ctx, createBooking,
		booking.UserID, booking.TruckID, booking.Code, booking.Status,
		booking.DeliveryCost, booking.InsurancePremium, booking.PaymentCompleted)
	b, err := pgx.CollectOneRow(rows, rowToBooking)
	if err != nil {
		return b, fmt.Errorf("db error: %w", err)
	}

	return b, nil
}

func (r *BookingRepo) GetBooking(ctx context.Context, id uuid.UUID) (models.Booking, error) {
	const getBooking = `-- name: GetBooking
	SELECT ` + bookingColumns + ` FROM bookings
	WHERE id = $1
	`

	rows, _ := r.DB.Query(ctx, getBooking, id)
	return r.collectBooking(rows)
}

func (r *BookingRepo) GetBookingByCode(ctx context.Context, code string) (models.Booking, error) {
	const getBookingByCode = `-- name: GetBookingByCode
	SELECT ` + bookingColumns + ` FROM bookings
	WHERE code = $1
	`

	rows, _ := r.DB.Query(ctx, getBookingByCode, code)
	return r.collectBooking(rows)
}

func (r *BookingRepo) SetCode(ctx context.Context, id uuid.UUID, code *string) error {
	const setCode = `-- name: SetBookingCode
	UPDATE bookings SET code = $2
	WHERE id = $1
	`

	tag, err := r.DB.Exec(ctx, setCode, id, code)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrBookingNotFound
	}

	return nil
}

// MarkPaid flips payment_completed exactly once. The status predicate makes
// a replayed verification a plain read with marked=false.
func (r *BookingRepo) MarkPaid(ctx context.Context, id uuid.UUID) (models.Booking, bool, error) {
	const markPaid = `-- name: MarkBookingPaid
	UPDATE bookings
	SET payment_completed = true, status = 'active'
	WHERE id = $1 AND NOT payment_completed
	RETURNING ` + bookingColumns + `
	`

	rows, _ := r.DB.Query(ctx, markPaid, id)
	b, err := pgx.CollectOneRow(rows, rowToBooking)

	switch {
	case err == nil:
		return b, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		b, err = r.GetBooking(ctx, id)
		return b, false, err
	default:
		return b, false, fmt.Errorf("db error: %w", err)
	}
}

func (r *BookingRepo) collectBooking(rows pgx.Rows) (models.Booking, error) {
	b, err := pgx.CollectOneRow(rows, rowToBooking)

	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, pgx.ErrNoRows):
		return b, apperrors.ErrBookingNotFound
	default:
		return b, fmt.Errorf("db error: %w", err)
	}
}

func rowToBooking(row pgx.CollectableRow) (models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.TruckID, &b.Code, &b.Status,
		&b.DeliveryCost, &b.InsurancePremium, &b.PaymentCompleted, &b.CreatedAt)
	return b, err
}
