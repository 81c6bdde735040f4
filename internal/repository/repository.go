package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surgeseven/settlement/internal/models"
)

// Storage aggregates all repositories over a single connection or transaction.
type Storage interface {
	Balance() BalanceRepo
	Withdrawal() WithdrawalRepo
	Booking() BookingRepo
	Subscription() SubscriptionRepo
	Payment() PaymentRepo
	Tracker() TrackerRepo

	// InTx runs fn with a Storage bound to one database transaction.
	// Commit if fn returns nil, rollback otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}

// Balance repository interface
// The balance row is the only money field in the system; every mutation
// goes through Debit or Refund so the non-negative invariant is enforced
// by the storage, not by callers.
type BalanceRepo interface {
	CreateBalance(ctx context.Context, userID uuid.UUID) error

	// If balance not found must return apperrors.ErrBalanceNotFound
	GetBalance(ctx context.Context, userID uuid.UUID) (models.Balance, error)

	// Credit adds delivery earnings to current.
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Balance, error)

	// Debit subtracts amount from current and adds it to withdrawn.
	// Must fail with apperrors.ErrBalanceInsufficient (and change nothing)
	// when current < amount, atomically with respect to concurrent debits.
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Balance, error)

	// Refund reverses a previous debit of amount.
	Refund(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Balance, error)
}

type WithdrawalRepo interface {
	CreateMethod(ctx context.Context, method models.WithdrawalMethod) (models.WithdrawalMethod, error)

	// If method not found must return apperrors.ErrMethodNotFound
	GetMethod(ctx context.Context, methodID uuid.UUID) (models.WithdrawalMethod, error)
	ListMethods(ctx context.Context, userID uuid.UUID, verifiedOnly bool) ([]models.WithdrawalMethod, error)

	CreateRequest(ctx context.Context, req models.WithdrawalRequest) (models.WithdrawalRequest, error)

	// If request not found must return apperrors.ErrWithdrawalNotFound
	GetRequest(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error)
	GetRequestByTransferID(ctx context.Context, transferID int64) (models.WithdrawalRequest, error)

	// Newest first
	ListRequests(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error)

	// SetStatus sets status unconditionally (admin override path).
	SetStatus(ctx context.Context, id uuid.UUID, status string, notes string, processedAt *time.Time) (models.WithdrawalRequest, error)

	// TransitionFromProcessing moves the request to status only if it is
	// still processing. Returns transitioned=false (and no error) when the
	// request is already terminal, so replayed callbacks are no-ops.
	TransitionFromProcessing(ctx context.Context, id uuid.UUID, status string, processedAt *time.Time) (req models.WithdrawalRequest, transitioned bool, err error)
}

type BookingRepo interface {
	CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error)

	// If booking not found must return apperrors.ErrBookingNotFound
	GetBooking(ctx context.Context, id uuid.UUID) (models.Booking, error)
	GetBookingByCode(ctx context.Context, code string) (models.Booking, error)

	// SetCode stores (or clears, with nil) the payment reference.
	SetCode(ctx context.Context, id uuid.UUID, code *string) error

	// MarkPaid flips payment_completed and activates the booking only if
	// the payment is not completed yet. Returns marked=false otherwise.
	MarkPaid(ctx context.Context, id uuid.UUID) (booking models.Booking, marked bool, err error)
}

type SubscriptionRepo interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error)

	// If subscription not found must return apperrors.ErrSubscriptionNotFound
	GetByCode(ctx context.Context, code string) (models.Subscription, error)

	// Same single-flip contract as BookingRepo.MarkPaid.
	MarkActive(ctx context.Context, code string) (sub models.Subscription, marked bool, err error)
}

type PaymentRepo interface {
	CreatePayment(ctx context.Context, payment models.Payment) (models.Payment, error)
	CreateReceipt(ctx context.Context, receipt models.Receipt) (models.Receipt, error)
	ListPayments(ctx context.Context, bookingID uuid.UUID) ([]models.Payment, error)
	ListReceipts(ctx context.Context, bookingID uuid.UUID) ([]models.Receipt, error)
}

type TrackerRepo interface {
	CreateTruck(ctx context.Context, truck models.Truck) (models.Truck, error)

	// If truck not found must return apperrors.ErrTruckNotFound
	GetTruckByTrackerID(ctx context.Context, trackerID string) (models.Truck, error)

	// If session not found must return apperrors.ErrSessionNotFound
	GetSession(ctx context.Context, userID uuid.UUID) (models.TrackerSession, error)

	// UpsertSession replaces any prior token for the user.
	UpsertSession(ctx context.Context, session models.TrackerSession) error

	UpsertSnapshot(ctx context.Context, snapshot models.TrackerSnapshot) error
	GetSnapshot(ctx context.Context, truckID uuid.UUID) (models.TrackerSnapshot, error)

	// AppendEvent writes to the append-only event log.
	AppendEvent(ctx context.Context, event models.TrackingEvent) (models.TrackingEvent, error)
	ListEvents(ctx context.Context, truckID uuid.UUID, limit int) ([]models.TrackingEvent, error)
}
