package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusFailed     = "failed"
)

// ValidWithdrawalStatus reports whether s is one of the enumerated
// withdrawal statuses. Admin updates accept nothing else.
func ValidWithdrawalStatus(s string) bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusProcessing,
		WithdrawalStatusCompleted, WithdrawalStatusFailed:
		return true
	}
	return false
}

// WithdrawalMethod holds payout details for one user.
// Immutable once referenced by a completed withdrawal.
type WithdrawalMethod struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	BankCode      string
	AccountNumber string
	AccountName   string
	Verified      bool
	CreatedAt     time.Time
}

type WithdrawalRequest struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	MethodID    uuid.UUID
	Amount      decimal.Decimal
	Status      string
	TransferID  *int64
	ProviderRef string
	AdminNotes  string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
