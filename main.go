package main

//go:generate swag init

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/satheeshds/driverdesk/auth"
	"github.com/satheeshds/driverdesk/backend"
	"github.com/satheeshds/driverdesk/config"
	"github.com/satheeshds/driverdesk/db"
	_ "github.com/satheeshds/driverdesk/docs"
	"github.com/satheeshds/driverdesk/events"
	"github.com/satheeshds/driverdesk/handlers"
	"github.com/satheeshds/driverdesk/logging"
	"github.com/satheeshds/driverdesk/metrics"
	"github.com/satheeshds/driverdesk/payment"
	"github.com/satheeshds/driverdesk/store"
	"github.com/satheeshds/driverdesk/triplog"
	"github.com/satheeshds/driverdesk/workflow"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title           Driverdesk API
// @version         1.0.0
// @description     Delivery and payment workflow for drivers: load a billing, confirm delivered products, capture trip details and record payments.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Configure structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	// Open database
	database, err := db.Open(db.Options{Driver: cfg.DB.Driver, Path: cfg.DB.Path, URL: cfg.DB.URL})
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Run migrations
	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	st := store.New(database)

	// Trip ledger
	ledger, err := triplog.Open(cfg.Trips.LedgerPath)
	if err != nil {
		slog.Error("failed to open trip ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	var publisher events.Publisher = events.Noop{}
	if cfg.Events.KafkaBroker != "" {
		publisher = events.NewKafkaPublisher(cfg.Events.KafkaBroker, cfg.Events.KafkaTopic)
		slog.Info("publishing delivery events", "broker", cfg.Events.KafkaBroker, "topic", cfg.Events.KafkaTopic)
	}
	defer publisher.Close()

	m := metrics.New()
	upstream := backend.New(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout,
		backend.WithObserver(m.ObserveUpstream))

	basis, err := payment.ParseBasis(cfg.Payment.StatusBasis)
	if err != nil {
		slog.Error("invalid payment status basis", "error", err)
		os.Exit(1)
	}

	// Set shared dependencies for handlers
	handlers.DB = database
	handlers.Upstream = upstream
	handlers.Trips = ledger
	handlers.SuggestionMinChars = cfg.Workflow.SuggestionMinChars
	handlers.Sessions = workflow.NewManager(workflow.Deps{
		Upstream:     upstream,
		Snapshots:    st,
		Abandons:     st,
		Trips:        ledger,
		Events:       publisher,
		Observer:     m,
		StartTimeout: cfg.Backend.Timeout,
	}, m.ActiveSessions)
	// A shared payment makes three backend calls: load, update and refresh.
	handlers.Payments = payment.NewService(upstream, basis,
		payment.WithEvents(publisher), payment.WithObserver(m)).WithTimeout(3 * cfg.Backend.Timeout)
	if cfg.Auth.JWTSecret != "" {
		handlers.JWT = auth.NewJWTManager(cfg.Auth.JWTSecret, 12*time.Hour)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Resend abandon signals the billing service missed
	worker := workflow.NewAbandonWorker(st, upstream, cfg.Workflow.AbandonRetryInterval, cfg.Workflow.AbandonBatchSize, m)
	go worker.Start(ctx)

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	handlers.Mount(r)
	r.Handle("/metrics", m.Handler())

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		slog.Info("server starting", "address", addr, "backend", cfg.Backend.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	if err := handlers.Sessions.Drain(shutdownCtx); err != nil {
		slog.Warn("background delivery calls still running", "error", err)
	}
}
