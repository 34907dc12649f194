package notification

import "context"

// NotificationService sends fire-and-forget customer emails. Failures are
// logged, never propagated into booking outcomes.
type NotificationService interface {
	SendBookingConfirmation(ctx context.Context, toEmail, name, serviceType, date, timeOfDay string, guestCount int, amountPence int64) error
	SendCancellationNotice(ctx context.Context, toEmail, name, date, timeOfDay string, refundPence int64) error
	SendGiftCardReceipt(ctx context.Context, toEmail string, creditPence int64, expiresAt string) error
}
