package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"

	"icehaus/config"
	"icehaus/cron"
	"icehaus/database"
	bookingRepoPkg "icehaus/database/repository/booking"
	entitlementRepoPkg "icehaus/database/repository/entitlement"
	slotRepoPkg "icehaus/database/repository/slot"
	"icehaus/handlers"
	"icehaus/middleware"
	"icehaus/routes"
	bookingSvc "icehaus/services/booking"
	entitlementSvc "icehaus/services/entitlement"
	"icehaus/services/notification"
	"icehaus/services/payment"
	"icehaus/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitAuthCache()
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	slotRepo := slotRepoPkg.NewMongoSlotRepo()
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	entitlementRepo := entitlementRepoPkg.NewMongoEntitlementRepo()

	for name, ensure := range map[string]func() error{
		"slots":        slotRepo.EnsureIndexes,
		"bookings":     bookingRepo.EnsureIndexes,
		"entitlements": entitlementRepo.EnsureIndexes,
	} {
		if err := ensure(); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}

	clock := utils.SystemClock{}

	// services.
	entitlementService := &entitlementSvc.DefaultEntitlementService{
		Repo:     entitlementRepo,
		Bookings: bookingRepo,
		Clock:    clock,
		Logger:   logger,
	}

	ledger := &bookingSvc.SlotLedger{
		Slots:    slotRepo,
		Bookings: bookingRepo,
		Schedule: bookingSvc.ScheduleFromConfig(),
		Clock:    clock,
		Logger:   logger,
	}

	scheduler := cron.NewAsynqScheduler()
	defer scheduler.Close()

	bookingService := &bookingSvc.DefaultBookingService{
		Ledger:       ledger,
		Entitlements: entitlementService,
		Bookings:     bookingRepo,
		Gateway:      payment.NewStripeGateway(logger),
		Scheduler:    scheduler,
		Prices:       bookingSvc.PriceTableFromConfig(),
		Clock:        clock,
		Logger:       logger,
		PendingTTL:   time.Duration(config.AppConfig.PendingBookingTTLMin) * time.Minute,
	}

	notificationService := &notification.DefaultNotificationService{
		Client: notification.NewResendClient(logger),
	}

	// Background worker for expiries and emails.
	cron.InitWorker(bookingService, bookingRepo, notificationService, logger)

	// HTTP surface.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(cors.Default())

	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	giftCardHandler := handlers.NewGiftCardHandler(entitlementService, notificationService, logger)

	routes.RegisterBookingRoutes(router, bookingHandler, utils.GetCacheClient())
	routes.RegisterGiftCardRoutes(router, giftCardHandler)
	routes.RegisterHealthRoute(router)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
