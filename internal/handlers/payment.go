package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/handlers/render"
	"github.com/surgeseven/settlement/internal/handlers/userctx"
	"github.com/surgeseven/settlement/internal/logger"
)

func handleStartSubscription(service ledgerService, l logger.Logger) http.Handler {
	type request struct {
		Plan string `json:"plan" validate:"required"`
	}

	type response struct {
		Code             string          `json:"code"`
		Plan             string          `json:"plan"`
		Price            decimal.Decimal `json:"price"`
		AuthorizationURL string          `json:"authorization_url"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		sub, authURL, err := service.StartSubscription(r.Context(), user, req.Plan)

		switch {
		case err == nil:
			render.JSONWithStatus(w, response{
				Code:             sub.Code,
				Plan:             sub.Plan,
				Price:            sub.Price,
				AuthorizationURL: authURL,
			}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrPlanNotFound):
			render.ServiceError(w, "Unknown subscription plan", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrProviderUnavailable):
			render.ServiceError(w, "Payment provider is unavailable", http.StatusBadGateway)
		case errors.Is(err, apperrors.ErrProviderRejected):
			render.ServiceError(w, "Payment provider rejected the transaction", http.StatusBadGateway)
		default:
			l.Error("Failed to start subscription", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleVerifySubscription(service ledgerService, l logger.Logger) http.Handler {
	type response struct {
		Code   string    `json:"code"`
		Plan   string    `json:"plan"`
		Active bool      `json:"active"`
		EndsAt time.Time `json:"ends_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("ref")
		if code == "" {
			render.ServiceError(w, "Payment reference is required", http.StatusUnprocessableEntity)
			return
		}

		sub, err := service.VerifySubscription(r.Context(), code)

		switch {
		case err == nil:
			render.JSON(w, response{
				Code:   sub.Code,
				Plan:   sub.Plan,
				Active: sub.Active,
				EndsAt: sub.EndsAt,
			})
		case errors.Is(err, apperrors.ErrSubscriptionNotFound):
			render.ServiceError(w, "Subscription not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrPaymentNotConfirmed):
			render.ServiceError(w, "Payment is not confirmed yet", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrProviderUnavailable):
			render.ServiceError(w, "Payment provider is unavailable", http.StatusBadGateway)
		default:
			l.Error("Failed to verify subscription", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleStartBookingPayment(service ledgerService, l logger.Logger) http.Handler {
	type response struct {
		BookingID        uuid.UUID       `json:"booking_id"`
		Code             string          `json:"code"`
		Amount           decimal.Decimal `json:"amount"`
		AuthorizationURL string          `json:"authorization_url"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		bookingID, err := uuid.Parse(r.PathValue("bookingID"))
		if err != nil {
			render.ServiceError(w, "Booking id must be a valid uuid", http.StatusUnprocessableEntity)
			return
		}

		booking, authURL, err := service.StartBookingPayment(r.Context(), user, bookingID)

		switch {
		case err == nil:
			var code string
			if booking.Code != nil {
				code = *booking.Code
			}
			render.JSONWithStatus(w, response{
				BookingID:        booking.ID,
				Code:             code,
				Amount:           booking.TotalCost(),
				AuthorizationURL: authURL,
			}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrBookingNotFound):
			render.ServiceError(w, "Booking not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrPaymentCompleted):
			render.ServiceError(w, "Booking is already paid", http.StatusConflict)
		case errors.Is(err, apperrors.ErrProviderUnavailable):
			render.ServiceError(w, "Payment provider is unavailable", http.StatusBadGateway)
		case errors.Is(err, apperrors.ErrProviderRejected):
			render.ServiceError(w, "Payment provider rejected the transaction", http.StatusBadGateway)
		default:
			l.Error("Failed to start booking payment", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleVerifyBookingPayment(service ledgerService, l logger.Logger) http.Handler {
	type response struct {
		BookingID        uuid.UUID `json:"booking_id"`
		PaymentCompleted bool      `json:"payment_completed"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		code := r.PathValue("ref")
		if code == "" {
			render.ServiceError(w, "Payment reference is required", http.StatusUnprocessableEntity)
			return
		}

		booking, err := service.VerifyBookingPayment(r.Context(), user, code)

		switch {
		case err == nil:
			render.JSON(w, response{
				BookingID:        booking.ID,
				PaymentCompleted: booking.PaymentCompleted,
			})
		case errors.Is(err, apperrors.ErrBookingNotFound):
			render.ServiceError(w, "Booking not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrPaymentNotConfirmed):
			render.ServiceError(w, "Payment is not confirmed yet", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrProviderUnavailable):
			render.ServiceError(w, "Payment provider is unavailable", http.StatusBadGateway)
		default:
			l.Error("Failed to verify booking payment", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
