package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/models"
)

type BalanceRepo struct {
	DB DBTX
}

func (r *BalanceRepo) CreateBalance(ctx context.Context, userID uuid.UUID) error {
	const createBalance = `-- name: CreateBalance
	INSERT INTO balances (user_id, current, withdrawn)
	VALUES ($1, 0, 0)
	RETURNING id
	`

	_, err := r.DB.Exec(ctx, createBalance, userID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("user balance already exists: %w", err)
		}

		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *BalanceRepo) GetBalance(ctx context.Context, userID uuid.UUID) (models.Balance, error) {
	const getBalanceByUserID = `-- name: GetBalance
	SELECT id, user_id, current, withdrawn FROM balances
	WHERE user_id = $1
	`

	rows, _ := r.DB.Query(ctx, getBalanceByUserID, userID)
	balance, err := pgx.CollectOneRow(rows, rowToBalance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		return balance, apperrors.ErrBalanceNotFound
	default:
		return balance, fmt.Errorf("db error: %w", err)
	}
}

func (r *BalanceRepo) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Balance, error) {
	const creditBalance = `-- name: CreditBalance
	UPDATE balances
	SET current = current + $2
	WHERE user_id = $1
	RETURNING id, user_id, current, withdrawn
	`

	rows, _ := r.DB.Query(ctx, creditBalance, userID, amount)
	balance, err := pgx.CollectOneRow(rows, rowToBalance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		return balance, apperrors.ErrBalanceNotFound
	default:
		return balance, fmt.Errorf("db error: %w", err)
	}
}

// Debit is a guarded single-statement update: the 'current >= amount'
// predicate and the row lock taken by UPDATE make a concurrent double-spend
// against a stale read impossible.
func (r *BalanceRepo) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Balance, error) {
	const debitBalance = `-- name: DebitBalance
	UPDATE balances
	SET current = current - $2, withdrawn = withdrawn + $2
	WHERE user_id = $1 AND current >= $2
	RETURNING id, user_id, current, withdrawn
	`

	rows, _ := r.DB.Query(ctx, debitBalance, userID, amount)
	balance, err := pgx.CollectOneRow(rows, rowToBalance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either the balance row is missing or the amount exceeds it
		if _, getErr := r.GetBalance(ctx, userID); getErr != nil {
			return balance, getErr
		}
		return balance, apperrors.ErrBalanceInsufficient
	default:
		return balance, fmt.Errorf("db error: %w", err)
	}
}

func (r *BalanceRepo) Refund(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Balance, error) {
	const refundBalance = `-- name: RefundBalance
	UPDATE balances
	SET current = current + $2, withdrawn = withdrawn - $2
	WHERE user_id = $1
	RETURNING id, user_id, current, withdrawn
	`

	rows, _ := r.DB.Query(ctx, refundBalance, userID, amount)
	balance, err := pgx.CollectOneRow(rows, rowToBalance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		return balance, apperrors.ErrBalanceNotFound
	default:
		return balance, fmt.Errorf("db error: %w", err)
	}
}

func rowToBalance(row pgx.CollectableRow) (models.Balance, error) {
	var b models.Balance
	err := row.Scan(&b.ID, &b.UserID, &b.Current, &b.Withdrawn)
	return b, err
}
