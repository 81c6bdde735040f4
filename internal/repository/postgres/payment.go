package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/surgeseven/settlement/internal/models"
)

type PaymentRepo struct {
	DB DBTX
}

func (r *PaymentRepo) CreatePayment(ctx context.Context, payment models.Payment) (models.Payment, error) {
	const createPayment = `-- name: CreatePayment
	INSERT INTO payments (user_id, booking_id, amount, reference, email, verified)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, user_id, booking_id, amount, reference, email, verified, created_at
	`

	rows, _ := r.DB.Query(ctx, createPayment,
		payment.UserID, payment.BookingID, payment.Amount, payment.Reference, payment.Email, payment.Verified)
	p, err := pgx.CollectOneRow(rows, rowToPayment)
	if err != nil {
		return p, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PaymentRepo) CreateReceipt(ctx context.Context, receipt models.Receipt) (models.Receipt, error) {
	const createReceipt = `-- name: CreateReceipt
	INSERT INTO receipts (booking_id, delivery_cost, insurance_premium, total)
	VALUES ($1, $2, $3, $4)
	RETURNING id, booking_id, delivery_cost, insurance_premium, total, created_at
	`

	rows, _ := r.DB.Query(ctx, createReceipt,
		receipt.BookingID, receipt.DeliveryCost, receipt.InsurancePremium, receipt.Total)
	created, err := pgx.CollectOneRow(rows, rowToReceipt)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *PaymentRepo) ListPayments(ctx context.Context, bookingID uuid.UUID) ([]models.Payment, error) {
	const listPayments = `-- name: ListPayments
	SELECT id, user_id, booking_id, amount, reference, email, verified, created_at
	FROM payments
	WHERE booking_id = $1
	ORDER BY created_at
	`

	rows, _ := r.DB.Query(ctx, listPayments, bookingID)
	payments, err := pgx.CollectRows(rows, rowToPayment)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return payments, nil
}

func (r *PaymentRepo) ListReceipts(ctx context.Context, bookingID uuid.UUID) ([]models.Receipt, error) {
	const listReceipts = `-- name: ListReceipts
	SELECT id, booking_id, delivery_cost, insurance_premium, total, created_at
	FROM receipts
	WHERE booking_id = $1
	ORDER BY created_at
	`

	rows, _ := r.DB.Query(ctx, listReceipts, bookingID)
	receipts, err := pgx.CollectRows(rows, rowToReceipt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return receipts, nil
}

func rowToPayment(row pgx.CollectableRow) (models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.BookingID, &p.Amount, &p.Reference, &p.Email, &p.Verified, &p.CreatedAt)
	return p, err
}

func rowToReceipt(row pgx.CollectableRow) (models.Receipt, error) {
	var r models.Receipt
	err := row.Scan(&r.ID, &r.BookingID, &r.DeliveryCost, &r.InsurancePremium, &r.Total, &r.CreatedAt)
	return r, err
}
