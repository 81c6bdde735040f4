package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/gateway/paystack"
	"github.com/surgeseven/settlement/internal/models"
	"github.com/surgeseven/settlement/internal/repository"
)

// Plan is a subscription offering. The catalog is fixed; prices never come
// from the request.
type Plan struct {
	Name     string
	Price    decimal.Decimal
	Duration time.Duration
}

var plans = map[string]Plan{
	"basic":   {Name: "basic", Price: decimal.NewFromInt(5000), Duration: 30 * 24 * time.Hour},
	"premium": {Name: "premium", Price: decimal.NewFromInt(15000), Duration: 30 * 24 * time.Hour},
	"fleet":   {Name: "fleet", Price: decimal.NewFromInt(50000), Duration: 90 * 24 * time.Hour},
}

// StartSubscription creates a pending subscription and initializes the charge.
// The subscription row with its reference is persisted BEFORE the provider
// call: a crash after initialization then leaves a resumable pending record,
// never a provider-side charge with no local trace.
func (s *Service) StartSubscription(ctx context.Context, user models.User, planName string) (models.Subscription, string, error) {
	plan, ok := plans[planName]
	if !ok {
		return models.Subscription{}, "", apperrors.ErrPlanNotFound
	}

	kobo, err := paystack.Kobo(plan.Price)
	if err != nil {
		return models.Subscription{}, "", fmt.Errorf("subscription price: %w", err)
	}

	now := time.Now()
	sub, err := s.storage.Subscription().CreateSubscription(ctx, models.Subscription{
		UserID:   user.ID,
		Plan:     plan.Name,
		Code:     uuid.NewString(),
		Status:   models.SubscriptionStatusPending,
		Price:    plan.Price,
		StartsAt: now,
		EndsAt:   now.Add(plan.Duration),
	})
	if err != nil {
		return sub, "", fmt.Errorf("create subscription: %w", err)
	}

	callbackURL := s.callbackBaseURL + "/api/payments/subscriptions/verify/" + sub.Code
	authURL, err := s.payments.InitializeTransaction(ctx, user.Email, kobo, sub.Code, callbackURL)
	if err != nil {
		return sub, "", err
	}

	return sub, authURL, nil
}

// VerifySubscription settles the charge referenced by code. Re-verifying an
// already-completed subscription is a plain read.
func (s *Service) VerifySubscription(ctx context.Context, code string) (models.Subscription, error) {
	sub, err := s.storage.Subscription().GetByCode(ctx, code)
	if err != nil {
		return sub, err
	}
	if sub.PaymentCompleted {
		return sub, nil
	}

	v, err := s.payments.VerifyTransaction(ctx, code)
	if err != nil {
		return sub, err
	}
	if !v.Succeeded {
		s.logger.Info("Subscription charge not confirmed", "code", code, "provider_status", v.Status)
		return sub, apperrors.ErrPaymentNotConfirmed
	}

	sub, _, err = s.storage.Subscription().MarkActive(ctx, code)
	if err != nil {
		return sub, fmt.Errorf("activate subscription: %w", err)
	}

	return sub, nil
}

// StartBookingPayment assigns the booking a fresh payment reference and
// initializes the charge. The reference is cleared again when initialization
// fails so the booking can be retried cleanly.
func (s *Service) StartBookingPayment(ctx context.Context, user models.User, bookingID uuid.UUID) (models.Booking, string, error) {
	booking, err := s.storage.Booking().GetBooking(ctx, bookingID)
	if err != nil {
		return booking, "", err
	}
	if booking.UserID != user.ID {
		return booking, "", apperrors.ErrBookingNotFound
	}
	if booking.PaymentCompleted {
		return booking, "", apperrors.ErrPaymentCompleted
	}

	kobo, err := paystack.Kobo(booking.TotalCost())
	if err != nil {
		return booking, "", fmt.Errorf("booking cost: %w", err)
	}

	code := uuid.NewString()
	if err := s.storage.Booking().SetCode(ctx, booking.ID, &code); err != nil {
		return booking, "", fmt.Errorf("store booking reference: %w", err)
	}
	booking.Code = &code

	callbackURL := s.callbackBaseURL + "/api/payments/bookings/verify/" + code
	authURL, err := s.payments.InitializeTransaction(ctx, user.Email, kobo, code, callbackURL)
	if err != nil {
		if clearErr := s.storage.Booking().SetCode(ctx, booking.ID, nil); clearErr != nil {
			s.logger.Error("Failed to clear booking reference after init failure", "error", clearErr, "booking_id", booking.ID)
		}
		return booking, "", err
	}

	return booking, authURL, nil
}

// VerifyBookingPayment settles the booking charge: flips payment_completed,
// writes the payment and receipt records in one transaction, then emails the
// receipt. The email is strictly best effort. Replaying verification for a
// completed booking reads current state and writes nothing.
func (s *Service) VerifyBookingPayment(ctx context.Context, user models.User, code string) (models.Booking, error) {
	booking, err := s.storage.Booking().GetBookingByCode(ctx, code)
	if err != nil {
		return booking, err
	}
	if booking.PaymentCompleted {
		return booking, nil
	}

	v, err := s.payments.VerifyTransaction(ctx, code)
	if err != nil {
		return booking, err
	}
	if !v.Succeeded {
		s.logger.Info("Booking charge not confirmed", "code", code, "provider_status", v.Status)
		return booking, apperrors.ErrPaymentNotConfirmed
	}

	var receipt models.Receipt
	marked := false

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		var err error

		booking, marked, err = tx.Booking().MarkPaid(ctx, booking.ID)
		if err != nil {
			return err
		}
		// Another verify call settled it first: nothing more to write
		if !marked {
			return nil
		}

		_, err = tx.Payment().CreatePayment(ctx, models.Payment{
			UserID:    booking.UserID,
			BookingID: booking.ID,
			Amount:    booking.TotalCost(),
			Reference: code,
			Email:     user.Email,
			Verified:  true,
		})
		if err != nil {
			return err
		}

		receipt, err = tx.Payment().CreateReceipt(ctx, models.Receipt{
			BookingID:        booking.ID,
			DeliveryCost:     booking.DeliveryCost,
			InsurancePremium: booking.InsurancePremium,
			Total:            booking.TotalCost(),
		})
		return err
	})
	if err != nil {
		return booking, fmt.Errorf("settle booking payment: %w", err)
	}

	if marked {
		if err := s.notifier.SendBookingReceipt(ctx, user.Email, booking, receipt); err != nil {
			s.logger.Error("Failed to send receipt email", "error", err, "booking_id", booking.ID)
		}
	}

	return booking, nil
}
