package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surgeseven/settlement/internal/handlers/middleware"
	"github.com/surgeseven/settlement/internal/logger"
	"github.com/surgeseven/settlement/internal/models"
	"github.com/surgeseven/settlement/internal/service/tracker"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Config struct {
	// Secret key access tokens are signed with
	SecretKey string

	// Shared secret the payout provider sends in the verif-hash header
	WebhookHash string
}

func NewRouter(
	cfg Config,
	ledgerService ledgerService,
	reconcilerService reconcilerService,
	trackerService trackerService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(cfg.SecretKey)
	staffMiddleware := middleware.StaffMiddleware()

	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	withStaff := func(h http.Handler) http.Handler {
		return authMiddleware(staffMiddleware(h))
	}

	api := http.NewServeMux()

	api.Handle("POST /payments/subscriptions", withAuth(handleStartSubscription(ledgerService, logger)))
	api.Handle("GET /payments/subscriptions/verify/{ref}", withAuth(handleVerifySubscription(ledgerService, logger)))
	api.Handle("POST /payments/bookings/{bookingID}", withAuth(handleStartBookingPayment(ledgerService, logger)))
	api.Handle("GET /payments/bookings/verify/{ref}", withAuth(handleVerifyBookingPayment(ledgerService, logger)))

	api.Handle("GET /balance", withAuth(handleBalance(ledgerService, logger)))
	api.Handle("POST /withdrawals", withAuth(handleWithdraw(ledgerService, logger)))
	api.Handle("GET /withdrawals", withAuth(handleListWithdrawals(ledgerService, logger)))
	api.Handle("POST /withdrawals/methods", withAuth(handleAddWithdrawalMethod(ledgerService, logger)))
	api.Handle("GET /withdrawals/methods", withAuth(handleListWithdrawalMethods(ledgerService, logger)))

	api.Handle("POST /admin/withdrawals/{id}", withStaff(handleAdminWithdrawalStatus(ledgerService, logger)))

	api.Handle("POST /webhooks/flutterwave", handlePayoutWebhook(cfg.WebhookHash, reconcilerService, logger))

	api.Handle("GET /trackers/{trackerID}/position", withAuth(handleTrackerPosition(trackerService, logger)))
	api.Handle("POST /trackers/{trackerID}/command", withAuth(handleTrackerCommand(trackerService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return chain(root,
		middleware.LoggerMiddleware(logger),
	)
}

type ledgerService interface {
	StartSubscription(ctx context.Context, user models.User, plan string) (models.Subscription, string, error)
	VerifySubscription(ctx context.Context, code string) (models.Subscription, error)
	StartBookingPayment(ctx context.Context, user models.User, bookingID uuid.UUID) (models.Booking, string, error)
	VerifyBookingPayment(ctx context.Context, user models.User, code string) (models.Booking, error)

	GetBalance(ctx context.Context, userID uuid.UUID) (models.Balance, error)
	AddWithdrawalMethod(ctx context.Context, userID uuid.UUID, bankCode, accountNumber, accountName string) (models.WithdrawalMethod, error)
	ListWithdrawalMethods(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalMethod, error)
	Withdraw(ctx context.Context, userID uuid.UUID, methodID uuid.UUID, amount decimal.Decimal) (models.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error)
	SetWithdrawalStatus(ctx context.Context, id uuid.UUID, status string, notes string) (models.WithdrawalRequest, error)
}

type reconcilerService interface {
	ReconcilePayoutEvent(ctx context.Context, transferID int64, providerStatus string) (models.WithdrawalRequest, error)
}

type trackerService interface {
	Position(ctx context.Context, trackerID string, user models.User) (tracker.View, error)
	Command(ctx context.Context, trackerID string, user models.User, action string) error
}
