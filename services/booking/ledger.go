package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"icehaus/config"
	bookingRepo "icehaus/database/repository/booking"
	slotRepo "icehaus/database/repository/slot"
	"icehaus/models"
	"icehaus/utils"
)

// reserveAttempts bounds the optimistic-concurrency retry loop.
const reserveAttempts = 3

// Schedule describes the studio's bookable week: which weekdays are open,
// the session start times, and the services run at each of them.
type Schedule struct {
	OperatingDays map[time.Weekday]bool
	SessionTimes  []string // "15:04"
	ServiceTypes  []string
}

// ScheduleFromConfig builds the schedule from the loaded configuration.
func ScheduleFromConfig() Schedule {
	days := make(map[time.Weekday]bool, len(config.AppConfig.OperatingDays))
	byName := map[string]time.Weekday{
		"Sunday": time.Sunday, "Monday": time.Monday, "Tuesday": time.Tuesday,
		"Wednesday": time.Wednesday, "Thursday": time.Thursday,
		"Friday": time.Friday, "Saturday": time.Saturday,
	}
	for _, name := range config.AppConfig.OperatingDays {
		if wd, ok := byName[name]; ok {
			days[wd] = true
		}
	}
	return Schedule{
		OperatingDays: days,
		SessionTimes:  config.AppConfig.SessionTimes,
		ServiceTypes:  config.AppConfig.ServiceTypes,
	}
}

// SlotLedger maintains per-slot occupancy: how many communal seats are
// taken and whether a private booking holds the whole slot. All mutation
// goes through conditional updates on the slot's version.
type SlotLedger struct {
	Slots    slotRepo.SlotRepository
	Bookings bookingRepo.BookingRepository
	Schedule Schedule
	Clock    utils.Clock
	Logger   *zap.Logger
}

// GetOrCreateDay returns the slots for a date, synthesizing them from the
// schedule on first query. Closed days yield no slots.
func (l *SlotLedger) GetOrCreateDay(ctx context.Context, date string) ([]models.TimeSlot, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, InvalidInput("invalid date %q, want YYYY-MM-DD", date)
	}

	existing, err := l.Slots.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load slots for %s: %w", date, err)
	}
	if len(existing) > 0 {
		return existing, nil
	}
	if !l.Schedule.OperatingDays[day.Weekday()] {
		return nil, nil
	}

	var slots []models.TimeSlot
	for _, sessionTime := range l.Schedule.SessionTimes {
		for _, serviceType := range l.Schedule.ServiceTypes {
			slots = append(slots, models.TimeSlot{
				ID:          uuid.New().String(),
				Date:        date,
				Time:        normalizeTime(sessionTime),
				ServiceType: serviceType,
				Capacity:    models.CommunalCapacity,
				Available:   true,
				Version:     1,
			})
		}
	}
	if len(slots) == 0 {
		return nil, nil
	}

	if _, err := l.Slots.CreateMany(ctx, slots); err != nil {
		// A concurrent request may have synthesized the day first; the
		// unique (date, time, service) index rejects our copy. Re-read.
		l.Logger.Debug("Slot synthesis raced, re-reading day", zap.String("date", date), zap.Error(err))
		return l.Slots.GetByDate(ctx, date)
	}
	l.Logger.Info("Synthesized day slots", zap.String("date", date), zap.Int("count", len(slots)))
	return slots, nil
}

// GetSlot loads a single slot by id.
func (l *SlotLedger) GetSlot(ctx context.Context, slotID string) (*models.TimeSlot, error) {
	slot, err := l.Slots.GetByID(ctx, slotID)
	if err != nil {
		if slotRepo.IsNotFound(err) {
			return nil, NotFound("time slot %s not found", slotID)
		}
		return nil, fmt.Errorf("failed to load slot %s: %w", slotID, err)
	}
	return slot, nil
}

// ComputeAvailability derives a slot's availability from its active
// bookings. A private hold zeroes the communal seats regardless of sums.
func (l *SlotLedger) ComputeAvailability(ctx context.Context, slot *models.TimeSlot) (models.SlotAvailability, error) {
	active, err := l.Bookings.ActiveBySlot(ctx, slot.ID)
	if err != nil {
		return models.SlotAvailability{}, fmt.Errorf("failed to load active bookings: %w", err)
	}

	var occupied int
	hasPrivate := false
	for _, b := range active {
		if b.BookingType == models.BookingTypePrivate {
			hasPrivate = true
		}
		occupied += b.GuestCount
	}

	avail := models.SlotAvailability{
		SlotID:         slot.ID,
		Date:           slot.Date,
		Time:           slot.Time,
		ServiceType:    slot.ServiceType,
		HasPrivateHold: hasPrivate,
		PrivateOpen:    len(active) == 0,
	}
	if hasPrivate {
		avail.AvailableSeats = 0
		return avail, nil
	}
	seats := slot.Capacity - occupied
	if seats < 0 {
		seats = 0
	}
	avail.AvailableSeats = seats
	return avail, nil
}

// Reserve seats in a slot. The availability pre-check gives precise
// rejections, but the capacity invariant is enforced by the conditional
// write itself: ReserveSeats matches only while the version is unchanged
// AND the seats still fit, so racing requests for the last seats cannot
// oversell regardless of what this read observed.
func (l *SlotLedger) Reserve(ctx context.Context, slotID, bookingType string, guestCount int) error {
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		slot, err := l.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}

		avail, err := l.ComputeAvailability(ctx, slot)
		if err != nil {
			return err
		}

		// The bookings sum lags a reserve whose row is still being
		// inserted; the slot's own counter covers that window.
		switch bookingType {
		case models.BookingTypePrivate:
			// A private booking needs the slot entirely empty.
			if !avail.PrivateOpen || slot.OccupiedSeats > 0 || slot.PrivateHold {
				return Conflict("slot %s at %s already has bookings; private hire needs an empty slot", slot.Date, slot.Time)
			}
			guestCount = slot.Capacity
		case models.BookingTypeCommunal:
			if avail.HasPrivateHold || slot.PrivateHold {
				return Conflict("slot %s at %s is privately booked", slot.Date, slot.Time)
			}
			remaining := avail.AvailableSeats
			if held := slot.Capacity - slot.OccupiedSeats; held < remaining {
				remaining = held
			}
			if guestCount > remaining {
				return Conflict("only %d of %d seats left at %s on %s", remaining, slot.Capacity, slot.Time, slot.Date)
			}
		default:
			return InvalidInput("unknown booking type %q", bookingType)
		}

		err = l.Slots.ReserveSeats(ctx, slotID, guestCount, bookingType == models.BookingTypePrivate, slot.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, slotRepo.ErrVersionConflict) {
			return fmt.Errorf("failed to reserve seats: %w", err)
		}
		l.Logger.Debug("Slot version conflict, retrying reserve",
			zap.String("slotId", slotID), zap.Int("attempt", attempt+1))
	}
	return Conflict("slot is being booked by someone else right now; please retry")
}

// Release returns seats to a slot after a cancellation or rollback.
func (l *SlotLedger) Release(ctx context.Context, slotID, bookingType string, guestCount int) error {
	if bookingType == models.BookingTypePrivate {
		slot, err := l.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		guestCount = slot.Capacity
	}
	if err := l.Slots.ReleaseSeats(ctx, slotID, guestCount, bookingType == models.BookingTypePrivate); err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	return nil
}

func normalizeTime(t string) string {
	if len(t) == 5 { // "15:04"
		return t + ":00"
	}
	return t
}
