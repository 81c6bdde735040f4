// Package notifier is the email side-effect sink. Delivery is best effort:
// callers log failures and never let them roll back a settled payment.
package notifier

import (
	"context"

	"github.com/surgeseven/settlement/internal/models"
)

type Notifier interface {
	SendBookingReceipt(ctx context.Context, email string, booking models.Booking, receipt models.Receipt) error
}

// NoOp discards all notifications. Used in tests and when no mail
// credentials are configured.
type NoOp struct{}

func (NoOp) SendBookingReceipt(context.Context, string, models.Booking, models.Receipt) error {
	return nil
}
