package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icehaus/models"
	"icehaus/services/entitlement"
)

func communalRequest() CreateBookingRequest {
	return CreateBookingRequest{
		CustomerName:  "Ada Frost",
		CustomerEmail: "ada@example.com",
		TimeSlotID:    "slot-1",
		BookingType:   models.BookingTypeCommunal,
		GuestCount:    2,
		PaymentMode:   models.PayModeGateway,
	}
}

func TestCreateBookingGatewayFlow(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))

	result, err := env.svc.CreateBooking(context.Background(), communalRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RedirectURL)
	assert.Equal(t, int64(2*1800), result.FinalAmount)

	booking := env.bookings.get(result.BookingID)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, models.PaymentPending, booking.PaymentStatus)
	assert.Equal(t, "cs_1", booking.StripeSessionID)

	// Seats are held provisionally and the expiry is queued.
	assert.Equal(t, 2, env.slots.slot("slot-1").OccupiedSeats)
	assert.Equal(t, []string{booking.ID}, env.tasks.expiries)
}

func TestCreateBookingSaunaSurcharge(t *testing.T) {
	slot := testSlot("slot-1")
	slot.ServiceType = "sauna"
	env := newTestEnv(slot)

	result, err := env.svc.CreateBooking(context.Background(), communalRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(2*(1800+400)), result.FinalAmount)
}

func TestCreateBookingTokenSettlesFree(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.ents.tokens = []models.TokenGrant{{ID: "grant-1", Remaining: 3}}

	req := communalRequest()
	req.PaymentMode = models.PayModeToken
	req.GuestCount = 4 // forced down to one guest

	result, err := env.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, result.RedirectURL)
	assert.Zero(t, result.FinalAmount)
	assert.Equal(t, 1, env.ents.consumedTokens)

	booking := env.bookings.get(result.BookingID)
	assert.Equal(t, models.StatusConfirmed, booking.Status)
	assert.Equal(t, models.PaymentPaid, booking.PaymentStatus)
	assert.Equal(t, 1, booking.GuestCount)
	assert.True(t, booking.FreeOfCharge())

	assert.Equal(t, 1, env.slots.slot("slot-1").OccupiedSeats)
	assert.Contains(t, env.tasks.emails, EmailConfirmation+":"+booking.ID)
}

func TestCreateBookingTokenWithoutTokens(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))

	req := communalRequest()
	req.PaymentMode = models.PayModeToken

	_, err := env.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeInsufficientFunds, CodeOf(err))
	assert.Equal(t, 0, env.slots.slot("slot-1").OccupiedSeats)
}

func TestCreateBookingOneFreeSessionPerDay(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.ents.tokens = []models.TokenGrant{{ID: "grant-1", Remaining: 3}}
	env.ents.freeToday = &models.Booking{Date: "2026-03-14", Time: "07:00:00"}

	req := communalRequest()
	req.PaymentMode = models.PayModeToken

	_, err := env.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.Equal(t, 0, env.ents.consumedTokens)
}

func TestCreateBookingMembershipFlow(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.ents.membership = &models.Membership{ID: "mem-1", SessionsRemaining: 2}

	req := communalRequest()
	req.PaymentMode = models.PayModeMembership
	req.UserID = "user-1"

	result, err := env.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, result.FinalAmount)
	assert.Equal(t, 1, env.ents.consumedSessions)
}

func TestCreateBookingMembershipExhausted(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.ents.membership = &models.Membership{ID: "mem-1", SessionsRemaining: 0}

	req := communalRequest()
	req.PaymentMode = models.PayModeMembership
	req.UserID = "user-1"

	_, err := env.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeInsufficientFunds, CodeOf(err))
}

func TestCreateBookingCreditCoversInFull(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.ents.credits = []models.StoreCredit{{ID: "cr-1", Balance: 5000}}

	req := communalRequest()
	req.PaymentMode = models.PayModeCredit
	req.UserID = "user-1"

	result, err := env.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, result.RedirectURL)
	assert.Zero(t, result.FinalAmount)
	require.Len(t, env.ents.appliedDeductions, 1)
	assert.Equal(t, int64(3600), env.ents.appliedDeductions[0].Amount)
}

func TestCreateBookingCreditShortfallGoesToGateway(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.ents.credits = []models.StoreCredit{{ID: "cr-1", Balance: 1000}}

	req := communalRequest()
	req.PaymentMode = models.PayModeCredit
	req.UserID = "user-1"

	result, err := env.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	// 3600 total, 1000 from credit, the rest charged.
	assert.NotEmpty(t, result.RedirectURL)
	assert.Equal(t, int64(2600), result.FinalAmount)
	require.Len(t, env.ents.appliedDeductions, 1)
	assert.Equal(t, int64(1000), env.ents.appliedDeductions[0].Amount)

	booking := env.bookings.get(result.BookingID)
	assert.Equal(t, int64(1000), booking.DiscountAmount)
}

func TestCreateBookingCreditRequiresSignIn(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))

	req := communalRequest()
	req.PaymentMode = models.PayModeCredit

	_, err := env.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
}

func TestCreateBookingDiscountCode(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.ents.discountPence = 600
	env.ents.discountCodeID = "code-1"

	req := communalRequest()
	req.DiscountCode = "WINTER10"

	result, err := env.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), result.FinalAmount)
	assert.Equal(t, []string{"code-1"}, env.ents.committedCodes)
}

func TestCreateBookingRejectedDiscountCode(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.ents.discountErr = entitlement.ErrCodeNotFound

	req := communalRequest()
	req.DiscountCode = "NOPE"

	_, err := env.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidInput, CodeOf(err))
	assert.Equal(t, 0, env.slots.slot("slot-1").OccupiedSeats)
}

func TestCreateBookingDiscountLookupFailureIsNotRejection(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.ents.discountErr = fmt.Errorf("failed to look up discount code: %w", errors.New("connection reset"))

	req := communalRequest()
	req.DiscountCode = "WINTER10"

	_, err := env.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	// A storage outage must not be reported as a bad code.
	assert.NotEqual(t, CodeInvalidInput, CodeOf(err))
	assert.Contains(t, err.Error(), "failed to resolve discount code")
}

func TestCreateBookingGatewayFailureUnwinds(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.gateway.createErr = errors.New("stripe is down")

	result, err := env.svc.CreateBooking(context.Background(), communalRequest())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, CodeUpstreamFailure, CodeOf(err))

	// Seats came back and no expiry was scheduled.
	assert.Equal(t, 0, env.slots.slot("slot-1").OccupiedSeats)
	assert.Empty(t, env.tasks.expiries)
}

func TestCreateBookingGuestCountCap(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))

	req := communalRequest()
	req.GuestCount = 6

	_, err := env.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidInput, CodeOf(err))
}

func TestCreateBookingUnknownSlot(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.CreateBooking(context.Background(), communalRequest())
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestConfirmBookingIdempotent(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))

	result, err := env.svc.CreateBooking(context.Background(), communalRequest())
	require.NoError(t, err)
	booking := env.bookings.get(result.BookingID)

	confirmed, err := env.svc.ConfirmBooking(context.Background(), booking.StripeSessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, confirmed.PaymentStatus)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	emailsAfterFirst := len(env.tasks.emails)

	// A replayed webhook changes nothing and sends nothing.
	again, err := env.svc.ConfirmBooking(context.Background(), booking.StripeSessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, again.PaymentStatus)
	assert.Len(t, env.tasks.emails, emailsAfterFirst)

	// Confirmation never touches occupancy.
	assert.Equal(t, 2, env.slots.slot("slot-1").OccupiedSeats)
}

func TestConfirmBookingUnknownSession(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.ConfirmBooking(context.Background(), "cs_missing")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestExpirePendingBookingReleasesSeats(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))

	result, err := env.svc.CreateBooking(context.Background(), communalRequest())
	require.NoError(t, err)

	expired, err := env.svc.ExpirePendingBooking(context.Background(), result.BookingID)
	require.NoError(t, err)
	assert.True(t, expired)

	booking := env.bookings.get(result.BookingID)
	assert.Equal(t, models.StatusCancelled, booking.Status)
	assert.Equal(t, 0, env.slots.slot("slot-1").OccupiedSeats)
	require.Len(t, env.bookings.audits, 1)
	assert.Equal(t, "pending_expired", env.bookings.audits[0].Action)
}

func TestExpirePendingBookingConfirmsSettledCheckout(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))

	result, err := env.svc.CreateBooking(context.Background(), communalRequest())
	require.NoError(t, err)
	booking := env.bookings.get(result.BookingID)

	// The customer paid but the webhook never arrived.
	env.gateway.statuses[booking.StripeSessionID] = "paid"

	expired, err := env.svc.ExpirePendingBooking(context.Background(), result.BookingID)
	require.NoError(t, err)
	assert.False(t, expired)

	booking = env.bookings.get(result.BookingID)
	assert.Equal(t, models.PaymentPaid, booking.PaymentStatus)
	assert.Equal(t, 2, env.slots.slot("slot-1").OccupiedSeats)
}

func TestExpirePendingBookingSkipsSettled(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))

	result, err := env.svc.CreateBooking(context.Background(), communalRequest())
	require.NoError(t, err)
	booking := env.bookings.get(result.BookingID)
	_, err = env.svc.ConfirmBooking(context.Background(), booking.StripeSessionID)
	require.NoError(t, err)

	expired, err := env.svc.ExpirePendingBooking(context.Background(), result.BookingID)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, 2, env.slots.slot("slot-1").OccupiedSeats)
}

func TestExpirePendingBookingLosesToConcurrentConfirmation(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))

	result, err := env.svc.CreateBooking(context.Background(), communalRequest())
	require.NoError(t, err)

	// The webhook lands while the expiry's gateway probe is in flight;
	// the conditional cancel must leave the paid booking alone.
	env.gateway.onStatus = func() {
		_, _ = env.bookings.MarkPaidIfPending(context.Background(), result.BookingID)
	}

	expired, err := env.svc.ExpirePendingBooking(context.Background(), result.BookingID)
	require.NoError(t, err)
	assert.False(t, expired)

	booking := env.bookings.get(result.BookingID)
	assert.Equal(t, models.PaymentPaid, booking.PaymentStatus)
	assert.Equal(t, models.StatusConfirmed, booking.Status)
	assert.Equal(t, 2, env.slots.slot("slot-1").OccupiedSeats)
	assert.Empty(t, env.bookings.audits)
}

func TestDayAvailability(t *testing.T) {
	env := newTestEnv()

	slots, err := env.svc.DayAvailability(context.Background(), "2026-03-14", "ice_bath")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	for _, s := range slots {
		assert.Equal(t, "ice_bath", s.ServiceType)
		assert.Equal(t, models.CommunalCapacity, s.AvailableSeats)
		assert.True(t, s.PrivateOpen)
	}
}

func TestCustomerBookingsRequiresIdentity(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.CustomerBookings(context.Background(), "", "")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidInput, CodeOf(err))
}

func TestPendingTTLDrivesCheckoutExpiry(t *testing.T) {
	env := newTestEnv(testSlot("slot-1"))
	env.svc.PendingTTL = 45 * time.Minute

	_, err := env.svc.CreateBooking(context.Background(), communalRequest())
	require.NoError(t, err)
	require.Len(t, env.tasks.expiryTTLs, 1)
	assert.Equal(t, 45*time.Minute, env.tasks.expiryTTLs[0])
}
