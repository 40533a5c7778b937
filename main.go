package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourify/config"
	"tourify/database"
	"tourify/database/repository"
	"tourify/handlers"
	"tourify/middleware"
	"tourify/routes"
	authService "tourify/services/auth"
	bookingService "tourify/services/booking"
	reviewService "tourify/services/review"
	tourService "tourify/services/tour"
	"tourify/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	tourRepo := repository.NewTourRepo()
	reviewRepo := repository.NewReviewRepo()
	userRepo := repository.NewUserRepo()
	bookingRepo := repository.NewBookingRepo()

	// services.
	tourSvc := &tourService.Service{
		Tours:  tourRepo,
		Cache:  utils.GetCacheClient(),
		Logger: logger,
	}

	aggregator := reviewService.NewAggregator(reviewRepo, tourRepo, tourSvc, logger)
	reviewSvc := reviewService.NewService(reviewRepo, aggregator)

	authSvc := &authService.Service{
		Users:  userRepo,
		Mailer: utils.NewMailer(),
		Logger: logger,
	}

	bookingSvc := &bookingService.Service{
		Tours:         tourRepo,
		Users:         userRepo,
		Bookings:      bookingRepo,
		WebhookSecret: config.AppConfig.StripeWebhookSecret,
		SuccessURL:    config.AppConfig.CheckoutSuccessURL,
		CancelURL:     config.AppConfig.CheckoutCancelURL,
		Logger:        logger,
	}

	// Assemble the handler bundle.
	handlerBundle := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authSvc),
		Tours:    handlers.NewTourHandler(tourRepo, tourSvc),
		Reviews:  handlers.NewReviewHandler(reviewSvc),
		Users:    handlers.NewUserHandler(userRepo),
		Bookings: handlers.NewBookingHandler(bookingSvc),
	}

	routes.RegisterRoutes(router, handlerBundle, userRepo)

	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	// Start the HTTP server.
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

	// Wait for an OS signal to gracefully shutdown.
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
