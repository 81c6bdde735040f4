package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/gateway/flutterwave"
	"github.com/surgeseven/settlement/internal/models"
	"github.com/surgeseven/settlement/internal/repository"
)

const withdrawalNarration = "SurgeSeven withdrawal"

func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (models.Balance, error) {
	return s.storage.Balance().GetBalance(ctx, userID)
}

func (s *Service) AddWithdrawalMethod(ctx context.Context, userID uuid.UUID, bankCode, accountNumber, accountName string) (models.WithdrawalMethod, error) {
	return s.storage.Withdrawal().CreateMethod(ctx, models.WithdrawalMethod{
		UserID:        userID,
		BankCode:      bankCode,
		AccountNumber: accountNumber,
		AccountName:   accountName,
	})
}

func (s *Service) ListWithdrawalMethods(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalMethod, error) {
	return s.storage.Withdrawal().ListMethods(ctx, userID, false)
}

func (s *Service) ListWithdrawals(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	return s.storage.Withdrawal().ListRequests(ctx, userID)
}

// Withdraw debits the balance, initiates the payout and records the
// processing request as one atomic unit. Any failure past the debit rolls
// the debit back, so no state exists where money left the balance without a
// matching request row (or the other way round).
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, methodID uuid.UUID, amount decimal.Decimal) (models.WithdrawalRequest, error) {
	var created models.WithdrawalRequest

	method, err := s.storage.Withdrawal().GetMethod(ctx, methodID)
	if err != nil {
		return created, err
	}
	if method.UserID != userID {
		return created, apperrors.ErrMethodNotFound
	}
	if !method.Verified {
		return created, apperrors.ErrMethodNotVerified
	}

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		// The guarded debit takes the row lock; it is held for the duration
		// of the payout call, which keeps the unit atomic at the cost of
		// lock hold time bounded by the provider timeout.
		if _, err := tx.Balance().Debit(ctx, userID, amount); err != nil {
			return err
		}

		result, err := s.payouts.InitiateTransfer(ctx, flutterwave.Transfer{
			BankCode:        method.BankCode,
			AccountNumber:   method.AccountNumber,
			Amount:          amount,
			Narration:       withdrawalNarration,
			BeneficiaryName: method.AccountName,
		})
		if err != nil {
			return err
		}

		created, err = tx.Withdrawal().CreateRequest(ctx, models.WithdrawalRequest{
			UserID:      userID,
			MethodID:    method.ID,
			Amount:      amount,
			Status:      models.WithdrawalStatusProcessing,
			TransferID:  &result.TransferID,
			ProviderRef: result.Reference,
		})
		return err
	})
	if err != nil {
		return created, err
	}

	s.logger.Info("Withdrawal initiated",
		"withdrawal_id", created.ID, "user_id", userID, "amount", amount, "transfer_id", created.TransferID)
	return created, nil
}

// SetWithdrawalStatus is the admin override: any enumerated status may be
// set directly, with free-text notes. Moving a processing request to failed
// refunds the debited amount in the same transaction.
func (s *Service) SetWithdrawalStatus(ctx context.Context, id uuid.UUID, status string, notes string) (models.WithdrawalRequest, error) {
	var updated models.WithdrawalRequest

	if !models.ValidWithdrawalStatus(status) {
		return updated, apperrors.ErrInvalidStatus
	}

	var processedAt *time.Time
	if status == models.WithdrawalStatusCompleted {
		now := time.Now()
		processedAt = &now
	}

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		if status == models.WithdrawalStatusFailed {
			// Refund only a request that was actually in flight; the guarded
			// transition keeps a replayed or raced update from refunding twice.
			req, transitioned, err := tx.Withdrawal().TransitionFromProcessing(ctx, id, status, nil)
			if err != nil {
				return err
			}
			if transitioned {
				if _, err := tx.Balance().Refund(ctx, req.UserID, req.Amount); err != nil {
					return err
				}
			}
		}

		var err error
		updated, err = tx.Withdrawal().SetStatus(ctx, id, status, notes, processedAt)
		return err
	})
	if err != nil {
		return updated, err
	}

	s.logger.Info("Withdrawal status set by admin", "withdrawal_id", id, "status", status)
	return updated, nil
}
