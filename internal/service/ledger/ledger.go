// Package ledger owns every money mutation: charge verification for bookings
// and subscriptions, and the withdrawal state machine. Nothing else in the
// system writes balances or payment flags.
package ledger

import (
	"context"

	"github.com/surgeseven/settlement/internal/gateway/flutterwave"
	"github.com/surgeseven/settlement/internal/gateway/paystack"
	"github.com/surgeseven/settlement/internal/logger"
	"github.com/surgeseven/settlement/internal/notifier"
	"github.com/surgeseven/settlement/internal/repository"
)

type paymentProvider interface {
	InitializeTransaction(ctx context.Context, email string, amountKobo int64, reference string, callbackURL string) (string, error)
	VerifyTransaction(ctx context.Context, reference string) (paystack.Verification, error)
}

type payoutProvider interface {
	InitiateTransfer(ctx context.Context, t flutterwave.Transfer) (flutterwave.Result, error)
}

type Service struct {
	storage  repository.Storage
	payments paymentProvider
	payouts  payoutProvider
	notifier notifier.Notifier

	// Base URL the payment provider redirects the payer back to
	callbackBaseURL string

	logger logger.Logger
}

type Config struct {
	CallbackBaseURL string
}

func NewService(
	cfg Config,
	storage repository.Storage,
	payments paymentProvider,
	payouts payoutProvider,
	n notifier.Notifier,
	l logger.Logger,
) *Service {
	if n == nil {
		n = notifier.NoOp{}
	}

	return &Service{
		storage:         storage,
		payments:        payments,
		payouts:         payouts,
		notifier:        n,
		callbackBaseURL: cfg.CallbackBaseURL,
		logger:          l,
	}
}
