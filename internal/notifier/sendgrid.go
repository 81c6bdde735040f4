package notifier

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/surgeseven/settlement/internal/logger"
	"github.com/surgeseven/settlement/internal/models"
)

type SendGrid struct {
	client *sendgrid.Client
	from   *mail.Email
	logger logger.Logger
}

func NewSendGrid(apiKey string, fromAddress string, l logger.Logger) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("SurgeSeven", fromAddress),
		logger: l,
	}
}

func (s *SendGrid) SendBookingReceipt(ctx context.Context, email string, booking models.Booking, receipt models.Receipt) error {
	code := ""
	if booking.Code != nil {
		code = *booking.Code
	}

	subject := fmt.Sprintf("Your Booking Receipt - #%s", code)
	plain := fmt.Sprintf(
		"Payment received for booking %s.\nDelivery cost: %s\nInsurance premium: %s\nTotal: %s\n",
		code, receipt.DeliveryCost, receipt.InsurancePremium, receipt.Total,
	)
	html := fmt.Sprintf(
		"<p>Payment received for booking <strong>%s</strong>.</p><p>Delivery cost: %s<br>Insurance premium: %s<br>Total: <strong>%s</strong></p>",
		code, receipt.DeliveryCost, receipt.InsurancePremium, receipt.Total,
	)

	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", email), plain, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status code %d", resp.StatusCode)
	}

	s.logger.Debug("Receipt email sent", "to", email, "booking_code", code, "status_code", resp.StatusCode)
	return nil
}
