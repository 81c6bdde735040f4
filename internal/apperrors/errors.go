package apperrors

import (
	"errors"
)

var (
	ErrBalanceInsufficient = errors.New("insufficient balance")
	ErrBalanceNotFound     = errors.New("balance not found")

	ErrMethodNotFound    = errors.New("withdrawal method not found")
	ErrMethodNotVerified = errors.New("withdrawal method is not verified")

	ErrWithdrawalNotFound = errors.New("withdrawal request not found")
	ErrInvalidStatus      = errors.New("invalid withdrawal status")

	ErrBookingNotFound      = errors.New("booking not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrPaymentCompleted     = errors.New("payment already completed")
	ErrPaymentNotConfirmed  = errors.New("payment not confirmed by provider")

	// Payment provider (inbound charges)
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrProviderRejected    = errors.New("payment provider rejected request")

	// Payout provider (outbound transfers)
	ErrPayoutUnavailable = errors.New("payout provider unavailable")
	ErrPayoutRejected    = errors.New("payout provider rejected transfer")

	// Tracker provider
	ErrAuthUnavailable     = errors.New("tracker authentication unavailable")
	ErrSessionNotFound     = errors.New("tracker session not found")
	ErrTruckNotFound       = errors.New("truck not found for tracker")
	ErrInvalidPositionData = errors.New("invalid position data from tracker")
	ErrNoPositionData      = errors.New("no position data available")
	ErrInvalidAction       = errors.New("invalid tracker action")
	ErrCommandFailed       = errors.New("tracker command failed")
)
