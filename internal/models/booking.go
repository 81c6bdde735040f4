package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	BookingStatusPending = "pending"
	BookingStatusActive  = "active"
)

type Booking struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	TruckID          uuid.UUID
	Code             *string
	Status           string
	DeliveryCost     decimal.Decimal
	InsurancePremium decimal.Decimal
	PaymentCompleted bool
	CreatedAt        time.Time
}

// TotalCost is the amount actually charged for the booking.
func (b Booking) TotalCost() decimal.Decimal {
	return b.DeliveryCost.Add(b.InsurancePremium)
}

type Receipt struct {
	ID               uuid.UUID
	BookingID        uuid.UUID
	DeliveryCost     decimal.Decimal
	InsurancePremium decimal.Decimal
	Total            decimal.Decimal
	CreatedAt        time.Time
}

// Payment is the audit record written once a charge is verified.
type Payment struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	BookingID uuid.UUID
	Amount    decimal.Decimal
	Reference string
	Email     string
	Verified  bool
	CreatedAt time.Time
}
