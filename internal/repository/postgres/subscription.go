package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/models"
)

type SubscriptionRepo struct {
	DB DBTX
}

const subscriptionColumns = `id, user_id, plan, code, status, active, payment_completed, price, starts_at, ends_at`

func (r *SubscriptionRepo) CreateSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	const createSubscription = `-- name: CreateSubscription
	INSERT INTO subscriptions (user_id, plan, code, status, active, payment_completed, price, starts_at, ends_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING ` + subscriptionColumns + `
	`

	if sub.Status == "" {
		sub.Status = models.SubscriptionStatusPending
	}

	rows, _ := r.DB.Query(ctx, createSubscription,
		sub.UserID, sub.Plan, sub.Code, sub.Status, sub.Active,
		sub.PaymentCompleted, sub.Price, sub.StartsAt, sub.EndsAt)
	created, err := pgx.CollectOneRow(rows, rowToSubscription)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *SubscriptionRepo) GetByCode(ctx context.Context, code string) (models.Subscription, error) {
	const getByCode = `-- name: GetSubscriptionByCode
	SELECT ` + subscriptionColumns + ` FROM subscriptions
	WHERE code = $1
	`

	rows, _ := r.DB.Query(ctx, getByCode, code)
	sub, err := pgx.CollectOneRow(rows, rowToSubscription)

	switch {
	case err == nil:
		return sub, nil
	case errors.Is(err, pgx.ErrNoRows):
		return sub, apperrors.ErrSubscriptionNotFound
	default:
		return sub, fmt.Errorf("db error: %w", err)
	}
}

func (r *SubscriptionRepo) MarkActive(ctx context.Context, code string) (models.Subscription, bool, error) {
	const markActive = `-- name: MarkSubscriptionActive
	UPDATE subscriptions
	SET payment_completed = true, active = true, status = 'active'
	WHERE code = $1 AND NOT payment_completed
	RETURNING ` + subscriptionColumns + `
	`

	rows, _ := r.DB.Query(ctx, markActive, code)
	sub, err := pgx.CollectOneRow(rows, rowToSubscription)

	switch {
	case err == nil:
		return sub, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		sub, err = r.GetByCode(ctx, code)
		return sub, false, err
	default:
		return sub, false, fmt.Errorf("db error: %w", err)
	}
}

func rowToSubscription(row pgx.CollectableRow) (models.Subscription, error) {
	var s models.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.Plan, &s.Code, &s.Status, &s.Active,
		&s.PaymentCompleted, &s.Price, &s.StartsAt, &s.EndsAt)
	return s, err
}
