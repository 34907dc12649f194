package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"

	"icehaus/config"
	"icehaus/models"
)

// StripeGateway implements Gateway on Stripe Checkout.
type StripeGateway struct {
	logger *zap.Logger
}

// NewStripeGateway constructs a StripeGateway. The global stripe.Key must
// already be set (done in main from config).
func NewStripeGateway(logger *zap.Logger) *StripeGateway {
	return &StripeGateway{logger: logger}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyGBP)),
					UnitAmount: stripe.Int64(req.AmountPence),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(req.CustomerEmail),
		SuccessURL:    stripe.String(config.AppConfig.CheckoutSuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(config.AppConfig.CheckoutCancelURL),
	}
	if req.ExpiresIn > 0 {
		params.ExpiresAt = stripe.Int64(time.Now().Add(time.Duration(req.ExpiresIn) * time.Minute).Unix())
	}
	params.Context = ctx
	// Enough metadata to reconstruct the booking on confirmation.
	params.AddMetadata("bookingId", req.BookingID)
	params.AddMetadata("timeSlotId", req.TimeSlotID)

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	g.logger.Info("Created checkout session",
		zap.String("sessionId", s.ID),
		zap.String("bookingId", req.BookingID),
		zap.Int64("amountPence", req.AmountPence))

	return &models.CheckoutSession{ID: s.ID, RedirectURL: s.URL}, nil
}

func (g *StripeGateway) SessionPaymentStatus(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve checkout session %s: %w", sessionID, err)
	}
	if s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return SessionPaid, nil
	}
	return SessionUnpaid, nil
}

func (g *StripeGateway) RefundSession(ctx context.Context, sessionID string, amountPence int64) error {
	sessParams := &stripe.CheckoutSessionParams{}
	sessParams.Context = ctx
	sessParams.AddExpand("payment_intent")

	s, err := session.Get(sessionID, sessParams)
	if err != nil {
		return fmt.Errorf("failed to retrieve checkout session %s: %w", sessionID, err)
	}
	if s.PaymentIntent == nil {
		return fmt.Errorf("checkout session %s has no payment intent to refund", sessionID)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(s.PaymentIntent.ID),
	}
	if amountPence > 0 {
		params.Amount = stripe.Int64(amountPence)
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to create refund for session %s: %w", sessionID, err)
	}

	g.logger.Info("Refund issued",
		zap.String("sessionId", sessionID),
		zap.Int64("amountPence", amountPence))
	return nil
}
