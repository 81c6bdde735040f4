// Package reconciler consumes asynchronous payout provider callbacks and
// reconciles them against withdrawal state. Reconciliation is idempotent:
// the provider may deliver the same event any number of times.
package reconciler

import (
	"context"
	"time"

	"github.com/surgeseven/settlement/internal/logger"
	"github.com/surgeseven/settlement/internal/models"
	"github.com/surgeseven/settlement/internal/repository"
)

// Provider status that maps to a completed withdrawal; every other
// status is treated as failed.
const statusSuccessful = "SUCCESSFUL"

type Service struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  l,
	}
}

// ReconcilePayoutEvent applies one provider callback. Unknown transfer ids
// return apperrors.ErrWithdrawalNotFound and create nothing, so the provider
// retries delivery instead of the event being swallowed. A request already in
// terminal state is left untouched: status, balance and timestamps stay as
// they are, no matter how often the event is replayed.
func (s *Service) ReconcilePayoutEvent(ctx context.Context, transferID int64, providerStatus string) (models.WithdrawalRequest, error) {
	req, err := s.storage.Withdrawal().GetRequestByTransferID(ctx, transferID)
	if err != nil {
		return req, err
	}

	target := models.WithdrawalStatusFailed
	var processedAt *time.Time
	if providerStatus == statusSuccessful {
		target = models.WithdrawalStatusCompleted
		now := time.Now()
		processedAt = &now
	}

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		var transitioned bool
		var err error

		req, transitioned, err = tx.Withdrawal().TransitionFromProcessing(ctx, req.ID, target, processedAt)
		if err != nil {
			return err
		}

		if !transitioned {
			s.logger.Info("Payout event replayed for terminal withdrawal, ignoring",
				"transfer_id", transferID, "status", req.Status)
			return nil
		}

		// A failed payout returns the debited amount; without this the user
		// permanently loses balance on a provider-side failure.
		if target == models.WithdrawalStatusFailed {
			if _, err := tx.Balance().Refund(ctx, req.UserID, req.Amount); err != nil {
				return err
			}
			s.logger.Info("Withdrawal failed, balance refunded",
				"withdrawal_id", req.ID, "user_id", req.UserID, "amount", req.Amount)
		}

		return nil
	})
	if err != nil {
		return req, err
	}

	return req, nil
}
