package notification

import (
	"context"
	"fmt"
	"strings"
)

// DefaultNotificationService composes booking emails over a ResendClient.
type DefaultNotificationService struct {
	Client *ResendClient
}

func formatPence(p int64) string {
	return fmt.Sprintf("£%d.%02d", p/100, p%100)
}

func serviceLabel(serviceType string) string {
	words := strings.Split(serviceType, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (s *DefaultNotificationService) SendBookingConfirmation(ctx context.Context, toEmail, name, serviceType, date, timeOfDay string, guestCount int, amountPence int64) error {
	subject := "Your icehaus booking is confirmed"
	guests := ""
	if guestCount > 1 {
		guests = fmt.Sprintf(" for %d guests", guestCount)
	}
	paid := "This session was covered by your credits."
	if amountPence > 0 {
		paid = fmt.Sprintf("We received your payment of %s.", formatPence(amountPence))
	}
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your %s session%s on %s at %s is confirmed. %s</p><p>See you at the studio.</p>",
		name, serviceLabel(serviceType), guests, date, timeOfDay, paid,
	)
	return s.Client.Send(ctx, toEmail, subject, html)
}

func (s *DefaultNotificationService) SendCancellationNotice(ctx context.Context, toEmail, name, date, timeOfDay string, refundPence int64) error {
	subject := "Your icehaus booking has been cancelled"
	refund := ""
	if refundPence > 0 {
		refund = fmt.Sprintf(" A refund of %s is on its way.", formatPence(refundPence))
	}
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your session on %s at %s has been cancelled.%s</p>",
		name, date, timeOfDay, refund,
	)
	return s.Client.Send(ctx, toEmail, subject, html)
}

func (s *DefaultNotificationService) SendGiftCardReceipt(ctx context.Context, toEmail string, creditPence int64, expiresAt string) error {
	subject := "Gift card redeemed"
	html := fmt.Sprintf(
		"<p>You've redeemed a gift card worth %s. The credit is on your account and valid until %s.</p>",
		formatPence(creditPence), expiresAt,
	)
	return s.Client.Send(ctx, toEmail, subject, html)
}
