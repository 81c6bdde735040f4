package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SubscriptionStatusPending = "pending"
	SubscriptionStatusActive  = "active"
)

type Subscription struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Plan             string
	Code             string
	Status           string
	Active           bool
	PaymentCompleted bool
	Price            decimal.Decimal
	StartsAt         time.Time
	EndsAt           time.Time
}
