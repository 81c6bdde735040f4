package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/models"
)

type WithdrawalRepo struct {
	DB DBTX
}

const methodColumns = `id, user_id, bank_code, account_number, account_name, verified, created_at`

func (r *WithdrawalRepo) CreateMethod(ctx context.Context, method models.WithdrawalMethod) (models.WithdrawalMethod, error) {
	const createMethod = `-- name: CreateMethod
	INSERT INTO withdrawal_methods (user_id, bank_code, account_number, account_name, verified)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, user_id, bank_code, account_number, account_name, verified, created_at
	`

	rows, _ := r.DB.Query(ctx, createMethod,
		method.UserID, method.BankCode, method.AccountNumber, method.AccountName, method.Verified)
	m, err := pgx.CollectOneRow(rows, rowToMethod)
	if err != nil {
		return m, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

func (r *WithdrawalRepo) GetMethod(ctx context.Context, methodID uuid.UUID) (models.WithdrawalMethod, error) {
	const getMethod = `-- name: GetMethod
	SELECT ` + methodColumns + ` FROM withdrawal_methods
	WHERE id = $1
	`

	rows, _ := r.DB.Query(ctx, getMethod, methodID)
	m, err := pgx.CollectOneRow(rows, rowToMethod)

	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, pgx.ErrNoRows):
		return m, apperrors.ErrMethodNotFound
	default:
		return m, fmt.Errorf("db error: %w", err)
	}
}

func (r *WithdrawalRepo) ListMethods(ctx context.Context, userID uuid.UUID, verifiedOnly bool) ([]models.WithdrawalMethod, error) {
	const listMethods = `-- name: ListMethods
	SELECT ` + methodColumns + ` FROM withdrawal_methods
	WHERE user_id = $1 AND (NOT $2 OR verified)
	ORDER BY created_at
	`

	rows, _ := r.DB.Query(ctx, listMethods, userID, verifiedOnly)
	methods, err := pgx.CollectRows(rows, rowToMethod)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return methods, nil
}

const requestColumns = `id, user_id, method_id, amount, status, transfer_id, provider_ref, admin_notes, created_at, processed_at`

func (r *WithdrawalRepo) CreateRequest(ctx context.Context, req models.WithdrawalRequest) (models.WithdrawalRequest, error) {
	const createRequest = `-- name: CreateRequest
	INSERT INTO withdrawal_requests (user_id, method_id, amount, status, transfer_id, provider_ref, admin_notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + requestColumns + `
	`

	if req.Status == "" {
		req.Status = models.WithdrawalStatusPending
	}

	rows, _ := r.DB.Query(ctx, createRequest,
		req.UserID, req.MethodID, req.Amount, req.Status, req.TransferID, req.ProviderRef, req.AdminNotes)
	created, err := pgx.CollectOneRow(rows, rowToRequest)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *WithdrawalRepo) GetRequest(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error) {
	const getRequest = `-- name: GetRequest
	SELECT ` + requestColumns + ` FROM withdrawal_requests
	WHERE id = $1
	`

	rows, _ := r.DB.Query(ctx, getRequest, id)
	return r.collectRequest(rows)
}

func (r *WithdrawalRepo) GetRequestByTransferID(ctx context.Context, transferID int64) (models.WithdrawalRequest, error) {
	const getRequestByTransferID = `-- name: GetRequestByTransferID
	SELECT ` + requestColumns + ` FROM withdrawal_requests
	WHERE transfer_id = $1
	`

	rows, _ := r.DB.Query(ctx, getRequestByTransferID, transferID)
	return r.collectRequest(rows)
}

func (r *WithdrawalRepo) ListRequests(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	const listRequests = `-- name: ListRequests
	SELECT ` + requestColumns + ` FROM withdrawal_requests
	WHERE user_id = $1
	ORDER BY created_at DESC
	`

	rows, _ := r.DB.Query(ctx, listRequests, userID)
	requests, err := pgx.CollectRows(rows, rowToRequest)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return requests, nil
}

func (r *WithdrawalRepo) SetStatus(ctx context.Context, id uuid.UUID, status string, notes string, processedAt *time.Time) (models.WithdrawalRequest, error) {
	const setStatus = `-- name: SetStatus
	UPDATE withdrawal_requests
	SET status = $2, admin_notes = $3, processed_at = COALESCE($4, processed_at)
	WHERE id = $1
	RETURNING ` + requestColumns + `
	`

	rows, _ := r.DB.Query(ctx, setStatus, id, status, notes, processedAt)
	return r.collectRequest(rows)
}

// TransitionFromProcessing is the reconciliation write: the status predicate
// makes replayed provider callbacks and admin races harmless. A request
// already in terminal state is reported back unchanged with transitioned=false.
func (r *WithdrawalRepo) TransitionFromProcessing(ctx context.Context, id uuid.UUID, status string, processedAt *time.Time) (models.WithdrawalRequest, bool, error) {
	const transition = `-- name: TransitionFromProcessing
	UPDATE withdrawal_requests
	SET status = $2, processed_at = $3
	WHERE id = $1 AND status = 'processing'
	RETURNING ` + requestColumns + `
	`

	rows, _ := r.DB.Query(ctx, transition, id, status, processedAt)
	req, err := pgx.CollectOneRow(rows, rowToRequest)

	switch {
	case err == nil:
		return req, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		req, err = r.GetRequest(ctx, id)
		return req, false, err
	default:
		return req, false, fmt.Errorf("db error: %w", err)
	}
}

func (r *WithdrawalRepo) collectRequest(rows pgx.Rows) (models.WithdrawalRequest, error) {
	req, err := pgx.CollectOneRow(rows, rowToRequest)

	switch {
	case err == nil:
		return req, nil
	case errors.Is(err, pgx.ErrNoRows):
		return req, apperrors.ErrWithdrawalNotFound
	default:
		return req, fmt.Errorf("db error: %w", err)
	}
}

func rowToMethod(row pgx.CollectableRow) (models.WithdrawalMethod, error) {
	var m models.WithdrawalMethod
	err := row.Scan(&m.ID, &m.UserID, &m.BankCode, &m.AccountNumber, &m.AccountName, &m.Verified, &m.CreatedAt)
	return m, err
}

func rowToRequest(row pgx.CollectableRow) (models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := row.Scan(&w.ID, &w.UserID, &w.MethodID, &w.Amount, &w.Status,
		&w.TransferID, &w.ProviderRef, &w.AdminNotes, &w.CreatedAt, &w.ProcessedAt)
	return w, err
}
