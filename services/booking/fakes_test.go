package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	slotRepo "icehaus/database/repository/slot"
	"icehaus/models"
	"icehaus/services/payment"
	"icehaus/utils"
)

// fakeSlotRepo is an in-memory SlotRepository with the same conditional
// update semantics as the real one.
type fakeSlotRepo struct {
	mu    sync.Mutex
	slots map[string]*models.TimeSlot
	// forceConflicts makes the next N ReserveSeats calls lose the version
	// race regardless of the version passed in.
	forceConflicts int
}

func newFakeSlotRepo(slots ...models.TimeSlot) *fakeSlotRepo {
	r := &fakeSlotRepo{slots: make(map[string]*models.TimeSlot)}
	for i := range slots {
		s := slots[i]
		r.slots[s.ID] = &s
	}
	return r
}

func (r *fakeSlotRepo) CreateMany(_ context.Context, slots []models.TimeSlot) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for i := range slots {
		s := slots[i]
		for _, existing := range r.slots {
			if existing.Date == s.Date && existing.Time == s.Time && existing.ServiceType == s.ServiceType {
				return nil, fmt.Errorf("duplicate slot %s %s %s", s.Date, s.Time, s.ServiceType)
			}
		}
		r.slots[s.ID] = &s
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (r *fakeSlotRepo) GetByID(_ context.Context, slotID string) (*models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSlotRepo) GetByDate(_ context.Context, date string) ([]models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TimeSlot
	for _, s := range r.slots {
		if s.Date == date {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) GetByDateAndService(_ context.Context, date, serviceType string) ([]models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TimeSlot
	for _, s := range r.slots {
		if s.Date == date && s.ServiceType == serviceType {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) ReserveSeats(_ context.Context, slotID string, guestCount int, private bool, currentVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if r.forceConflicts > 0 {
		r.forceConflicts--
		s.Version++
		return slotRepo.ErrVersionConflict
	}
	if s.Version != currentVersion {
		return slotRepo.ErrVersionConflict
	}
	// The real filter refuses writes that would oversell or land on a
	// held slot, even at the current version.
	if s.PrivateHold {
		return slotRepo.ErrVersionConflict
	}
	if private && s.OccupiedSeats != 0 {
		return slotRepo.ErrVersionConflict
	}
	if !private && s.OccupiedSeats+guestCount > s.Capacity {
		return slotRepo.ErrVersionConflict
	}
	s.OccupiedSeats += guestCount
	s.Version++
	if private {
		s.PrivateHold = true
	}
	s.Available = !s.PrivateHold && s.OccupiedSeats < s.Capacity
	return nil
}

func (r *fakeSlotRepo) ReleaseSeats(_ context.Context, slotID string, guestCount int, private bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	s.OccupiedSeats -= guestCount
	if s.OccupiedSeats < 0 {
		s.OccupiedSeats = 0
	}
	s.Version++
	if private {
		s.PrivateHold = false
	}
	s.Available = !s.PrivateHold && s.OccupiedSeats < s.Capacity
	return nil
}

func (r *fakeSlotRepo) EnsureIndexes() error { return nil }

func (r *fakeSlotRepo) slot(id string) models.TimeSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.slots[id]
}

// fakeBookingRepo is an in-memory BookingRepository.
type fakeBookingRepo struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*models.Booking
	audits   []models.AuditEntry
	// createErr makes Create fail once.
	createErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	if booking.ID == "" {
		r.seq++
		booking.ID = fmt.Sprintf("bk-%d", r.seq)
	}
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, bookingID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) GetByStripeSession(_ context.Context, sessionID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.StripeSessionID == sessionID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeBookingRepo) ActiveBySlot(_ context.Context, slotID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.TimeSlotID == slotID && b.Active() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FreeEntitlementOnDate(_ context.Context, customerEmail, date string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.CustomerEmail == customerEmail && b.Date == date &&
			b.PaymentStatus == models.PaymentPaid && b.FinalAmount == 0 {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ByCustomer(_ context.Context, userID, email string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if (userID != "" && b.UserID == userID) || (email != "" && b.CustomerEmail == email) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, bookingID, status, paymentStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	b.Status = status
	b.PaymentStatus = paymentStatus
	return nil
}

func (r *fakeBookingRepo) MarkPaidIfPending(_ context.Context, bookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return false, mongo.ErrNoDocuments
	}
	if b.PaymentStatus != models.PaymentPending {
		return false, nil
	}
	b.PaymentStatus = models.PaymentPaid
	b.Status = models.StatusConfirmed
	return true, nil
}

func (r *fakeBookingRepo) CancelIfPending(_ context.Context, bookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return false, mongo.ErrNoDocuments
	}
	if b.PaymentStatus != models.PaymentPending {
		return false, nil
	}
	b.PaymentStatus = models.PaymentCancelled
	b.Status = models.StatusCancelled
	return true, nil
}

func (r *fakeBookingRepo) SetStripeSession(_ context.Context, bookingID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	b.StripeSessionID = sessionID
	return nil
}

func (r *fakeBookingRepo) RecordAudit(_ context.Context, entry models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, entry)
	return nil
}

func (r *fakeBookingRepo) EnsureIndexes() error { return nil }

func (r *fakeBookingRepo) get(id string) models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.bookings[id]
}

// fakeEntitlements is a scriptable EntitlementService.
type fakeEntitlements struct {
	tokens     []models.TokenGrant
	membership *models.Membership
	credits    []models.StoreCredit

	discountPence  int64
	discountCodeID string
	discountErr    error

	freeToday *models.Booking

	consumedTokens     int
	restockedTokens    int
	consumedSessions   int
	restockedSessions  int
	appliedDeductions  []models.CreditDeduction
	refundedDeductions []models.CreditDeduction
	committedCodes     []string
	applyDeductionsErr error
}

func (f *fakeEntitlements) ResolveTokens(context.Context, string) ([]models.TokenGrant, error) {
	return f.tokens, nil
}

func (f *fakeEntitlements) ResolveMembership(context.Context, string) (*models.Membership, error) {
	return f.membership, nil
}

func (f *fakeEntitlements) ResolveCredits(context.Context, string) ([]models.StoreCredit, error) {
	return f.credits, nil
}

func (f *fakeEntitlements) ResolveDiscountCode(_ context.Context, _ string, _ int64) (int64, string, error) {
	if f.discountErr != nil {
		return 0, "", f.discountErr
	}
	return f.discountPence, f.discountCodeID, nil
}

func (f *fakeEntitlements) FreeEntitlementUsedToday(context.Context, string, string) (*models.Booking, error) {
	return f.freeToday, nil
}

func (f *fakeEntitlements) ConsumeToken(context.Context, string) (string, error) {
	f.consumedTokens++
	return "grant-1", nil
}

func (f *fakeEntitlements) RestockToken(context.Context, string) error {
	f.restockedTokens++
	return nil
}

func (f *fakeEntitlements) ConsumeMembershipSession(context.Context, *models.Membership) error {
	f.consumedSessions++
	return nil
}

func (f *fakeEntitlements) RestockMembershipSession(context.Context, string) error {
	f.restockedSessions++
	return nil
}

func (f *fakeEntitlements) ApplyCreditDeductions(_ context.Context, deductions []models.CreditDeduction) error {
	if f.applyDeductionsErr != nil {
		return f.applyDeductionsErr
	}
	f.appliedDeductions = append(f.appliedDeductions, deductions...)
	return nil
}

func (f *fakeEntitlements) RefundCreditDeduction(_ context.Context, d models.CreditDeduction) error {
	f.refundedDeductions = append(f.refundedDeductions, d)
	return nil
}

func (f *fakeEntitlements) CommitDiscountUsage(_ context.Context, codeID string) error {
	f.committedCodes = append(f.committedCodes, codeID)
	return nil
}

func (f *fakeEntitlements) RedeemGiftCard(context.Context, string, string) (*models.StoreCredit, error) {
	return nil, nil
}

// fakeGateway is a scriptable payment.Gateway.
type fakeGateway struct {
	seq       int
	createErr error
	// statuses maps session id to the paid/unpaid state reported back.
	statuses  map[string]string
	statusErr error
	// onStatus runs inside SessionPaymentStatus, before the answer is
	// returned; tests use it to interleave concurrent transitions.
	onStatus func()
	refunds   []fakeRefund
	refundErr error
}

type fakeRefund struct {
	SessionID string
	Amount    int64
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*models.CheckoutSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	id := fmt.Sprintf("cs_%d", g.seq)
	if g.statuses == nil {
		g.statuses = make(map[string]string)
	}
	g.statuses[id] = payment.SessionUnpaid
	return &models.CheckoutSession{ID: id, RedirectURL: "https://checkout.test/" + id}, nil
}

func (g *fakeGateway) SessionPaymentStatus(_ context.Context, sessionID string) (string, error) {
	if g.onStatus != nil {
		g.onStatus()
	}
	if g.statusErr != nil {
		return "", g.statusErr
	}
	return g.statuses[sessionID], nil
}

func (g *fakeGateway) RefundSession(_ context.Context, sessionID string, amountPence int64) error {
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, fakeRefund{SessionID: sessionID, Amount: amountPence})
	return nil
}

// fakeScheduler records deferred work instead of queueing it.
type fakeScheduler struct {
	expiries   []string
	expiryTTLs []time.Duration
	emails     []string // "kind:bookingID"
}

func (s *fakeScheduler) ScheduleBookingExpiry(bookingID string, after time.Duration) error {
	s.expiries = append(s.expiries, bookingID)
	s.expiryTTLs = append(s.expiryTTLs, after)
	return nil
}

func (s *fakeScheduler) EnqueueBookingEmail(kind, bookingID string) error {
	s.emails = append(s.emails, kind+":"+bookingID)
	return nil
}

var testDay = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) // a Saturday

func testSchedule() Schedule {
	return Schedule{
		OperatingDays: map[time.Weekday]bool{
			time.Wednesday: true, time.Thursday: true, time.Friday: true,
			time.Saturday: true, time.Sunday: true,
		},
		SessionTimes: []string{"07:00", "08:00"},
		ServiceTypes: []string{"ice_bath", "sauna"},
	}
}

func testSlot(id string) models.TimeSlot {
	return models.TimeSlot{
		ID:          id,
		Date:        "2026-03-14",
		Time:        "07:00:00",
		ServiceType: "ice_bath",
		Capacity:    models.CommunalCapacity,
		Available:   true,
		Version:     1,
	}
}

type testEnv struct {
	svc      *DefaultBookingService
	slots    *fakeSlotRepo
	bookings *fakeBookingRepo
	ents     *fakeEntitlements
	gateway  *fakeGateway
	tasks    *fakeScheduler
}

func newTestEnv(slots ...models.TimeSlot) *testEnv {
	slotStore := newFakeSlotRepo(slots...)
	bookingStore := newFakeBookingRepo()
	ents := &fakeEntitlements{}
	gateway := &fakeGateway{}
	tasks := &fakeScheduler{}
	clock := utils.FixedClock{T: testDay}
	logger := zap.NewNop()

	ledger := &SlotLedger{
		Slots:    slotStore,
		Bookings: bookingStore,
		Schedule: testSchedule(),
		Clock:    clock,
		Logger:   logger,
	}

	return &testEnv{
		svc: &DefaultBookingService{
			Ledger:       ledger,
			Entitlements: ents,
			Bookings:     bookingStore,
			Gateway:      gateway,
			Scheduler:    tasks,
			Prices:       PriceTable{CommunalPence: 1800, PrivatePence: 9000, SaunaSurchargePence: 400},
			Clock:        clock,
			Logger:       logger,
			PendingTTL:   30 * time.Minute,
		},
		slots:    slotStore,
		bookings: bookingStore,
		ents:     ents,
		gateway:  gateway,
		tasks:    tasks,
	}
}
