package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/greenbasket/backend/internal/config"
	"github.com/greenbasket/backend/internal/dispatch"
	"github.com/greenbasket/backend/internal/es"
	"github.com/greenbasket/backend/internal/handlers"
	"github.com/greenbasket/backend/internal/handlers/cart"
	orderhandlers "github.com/greenbasket/backend/internal/handlers/order"
	"github.com/greenbasket/backend/internal/logging"
	"github.com/greenbasket/backend/internal/mailer"
	loggingmw "github.com/greenbasket/backend/internal/middleware/logging"
	"github.com/greenbasket/backend/internal/mykafka"
	ordersvc "github.com/greenbasket/backend/internal/order"
	"github.com/greenbasket/backend/internal/payment"
	svc "github.com/greenbasket/backend/internal/service"
	httpserver "github.com/greenbasket/backend/internal/transport/http"
)

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	producer := mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})

	esClient, err := es.NewClient(cfg)
	if err != nil {
		log.Fatalf("elasticsearch init failed: %v", err)
	}

	dispatchClient := dispatch.NewClient(cfg.DISPATCH_URL, cfg.DISPATCH_API_KEY, cfg.STORE_NAME, cfg.STORE_ADDRESS)
	notifier := dispatch.NewNotifier(db, dispatchClient, logger)

	orderService := &ordersvc.Service{
		DB:         db,
		Dispatcher: notifier,
		Producer:   producer,
		Log:        logger,
	}

	tokens := &svc.TokenService{
		DB:            db,
		JWTSecret:     []byte(cfg.JWT_SECRET),
		RefreshSecret: []byte(cfg.REFRESH_SECRET),
	}

	mail := &mailer.SMTPSender{
		Addr:     cfg.SMTP_ADDRESS,
		Host:     cfg.SMTP_HOST,
		From:     cfg.FROM_EMAIL,
		Password: cfg.FROM_PASSWORD,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			DB:            db,
			JWTSecret:     []byte(cfg.JWT_SECRET),
			RefreshSecret: []byte(cfg.REFRESH_SECRET),
			Producer:      producer,
			Mail:          mail,
		},
		AddressHandler:  &handlers.AddressHandler{DB: db},
		CategoryHandler: &handlers.CategoryHandler{DB: db},
		ProductHandler:  &handlers.ProductHandler{DB: db, Producer: producer, ES: esClient, Index: "products"},
		SearchHandler:   &handlers.SearchHandler{ES: esClient, Index: "products"},
		CartHandler:     &cart.CartHandler{DB: db, Producer: producer},
		OrderHandler: &orderhandlers.OrderHandler{
			Svc:            orderService,
			Stripe:         payment.NewStripeClient(cfg.STRIPE_SECRET_KEY),
			Razorpay:       payment.NewRazorpayClient(cfg.RAZORPAY_KEY_ID, cfg.RAZORPAY_KEY_SECRET),
			RazorpaySecret: cfg.RAZORPAY_KEY_SECRET,
		},
		Tokens: tokens,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	notifier.Close()

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	log.Println("shutdown complete")
}
