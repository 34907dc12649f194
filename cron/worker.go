package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"icehaus/config"
	bookingRepo "icehaus/database/repository/booking"
	bookingSvc "icehaus/services/booking"
	"icehaus/services/notification"
)

// Task types handled by the background worker.
const (
	TypeBookingExpire = "booking:expire"
	TypeBookingEmail  = "email:booking"
)

// expirePayload carries the booking whose pending window ran out.
type expirePayload struct {
	BookingID string `json:"bookingId"`
}

// emailPayload carries a customer email to be rendered and sent.
type emailPayload struct {
	Kind      string `json:"kind"`
	BookingID string `json:"bookingId"`
}

func queueRedisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// AsynqScheduler enqueues background work for the booking engine.
type AsynqScheduler struct {
	client *asynq.Client
}

// NewAsynqScheduler constructs the task scheduler backing the engine's
// deferred work.
func NewAsynqScheduler() *AsynqScheduler {
	return &AsynqScheduler{client: asynq.NewClient(queueRedisOpts())}
}

// ScheduleBookingExpiry queues the pending-booking expiry to fire after the
// checkout window closes.
func (s *AsynqScheduler) ScheduleBookingExpiry(bookingID string, after time.Duration) error {
	payload, err := json.Marshal(expirePayload{BookingID: bookingID})
	if err != nil {
		return fmt.Errorf("failed to marshal expiry payload: %w", err)
	}
	task := asynq.NewTask(TypeBookingExpire, payload)
	if _, err := s.client.Enqueue(task, asynq.ProcessIn(after), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue booking expiry: %w", err)
	}
	return nil
}

// EnqueueBookingEmail queues a confirmation or cancellation email.
func (s *AsynqScheduler) EnqueueBookingEmail(kind, bookingID string) error {
	payload, err := json.Marshal(emailPayload{Kind: kind, BookingID: bookingID})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}
	task := asynq.NewTask(TypeBookingEmail, payload)
	if _, err := s.client.Enqueue(task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("failed to enqueue booking email: %w", err)
	}
	return nil
}

// Close releases the underlying queue connection.
func (s *AsynqScheduler) Close() error {
	return s.client.Close()
}

// InitWorker runs the async worker in background.
func InitWorker(engine bookingSvc.BookingService, bookings bookingRepo.BookingRepository, notifSvc notification.NotificationService, logger *zap.Logger) {
	srv := asynq.NewServer(
		queueRedisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingExpire, handleExpireTask(engine, logger))
	mux.HandleFunc(TypeBookingEmail, handleEmailTask(bookings, notifSvc, logger))

	go func() {
		logger.Info("Starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("Async worker failed to start",
					zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
				if attempts == maxAttempts {
					logger.Fatal("Async worker exhausted start attempts")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleExpireTask(engine bookingSvc.BookingService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p expirePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid expiry payload", zap.Error(err))
			return err
		}

		expired, err := engine.ExpirePendingBooking(ctx, p.BookingID)
		if err != nil {
			logger.Error("Pending-booking expiry failed",
				zap.String("bookingId", p.BookingID), zap.Error(err))
			return err
		}
		if expired {
			logger.Info("Pending booking expired by worker", zap.String("bookingId", p.BookingID))
		}
		return nil
	}
}

func handleEmailTask(bookings bookingRepo.BookingRepository, notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p emailPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid email payload", zap.Error(err))
			return err
		}

		booking, err := bookings.GetByID(ctx, p.BookingID)
		if err != nil {
			if bookingRepo.IsNotFound(err) {
				logger.Warn("Email task for missing booking dropped", zap.String("bookingId", p.BookingID))
				return nil
			}
			return fmt.Errorf("failed to load booking for email: %w", err)
		}

		switch p.Kind {
		case bookingSvc.EmailConfirmation:
			err = notifSvc.SendBookingConfirmation(ctx,
				booking.CustomerEmail, booking.CustomerName,
				booking.ServiceType, booking.Date, booking.Time,
				booking.GuestCount, booking.FinalAmount)
		case bookingSvc.EmailCancellation:
			err = notifSvc.SendCancellationNotice(ctx,
				booking.CustomerEmail, booking.CustomerName,
				booking.Date, booking.Time, booking.FinalAmount)
		default:
			logger.Warn("Unknown email kind dropped", zap.String("kind", p.Kind))
			return nil
		}

		if err != nil {
			logger.Error("Failed to send booking email",
				zap.String("kind", p.Kind), zap.String("bookingId", p.BookingID), zap.Error(err))
		}
		return err
	}
}
