package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/crewtext-backend/api/controllers"
	"github.com/angelmondragon/crewtext-backend/api/routes"
	"github.com/angelmondragon/crewtext-backend/internal/assignments"
	"github.com/angelmondragon/crewtext-backend/internal/associates"
	"github.com/angelmondragon/crewtext-backend/internal/companies"
	"github.com/angelmondragon/crewtext-backend/internal/inbound"
	"github.com/angelmondragon/crewtext-backend/internal/messaging"
	"github.com/angelmondragon/crewtext-backend/internal/reminders"
	"github.com/angelmondragon/crewtext-backend/pkg/config"
	"github.com/angelmondragon/crewtext-backend/pkg/db"
	"github.com/angelmondragon/crewtext-backend/pkg/instance"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
	"github.com/angelmondragon/crewtext-backend/pkg/metrics"
	"github.com/angelmondragon/crewtext-backend/pkg/migrate"
	"github.com/angelmondragon/crewtext-backend/pkg/redis"
	"github.com/angelmondragon/crewtext-backend/pkg/twilio"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	twilioClient, err := twilio.New(cfg.Twilio, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create twilio client", err)
		os.Exit(1)
	}
	messenger, err := messaging.NewService(twilioClient, cfg.Twilio.RemindersNumber, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create messaging service", err)
		os.Exit(1)
	}

	loc, err := cfg.Reminders.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid reminders timezone", err)
		os.Exit(1)
	}

	reminderMetrics := metrics.NewReminderMetrics(prometheus.DefaultRegisterer)
	associateRepo := associates.NewRepository(dbClient.DB())

	reminderService, err := reminders.NewService(reminders.ServiceParams{
		Logger:      logg,
		Repo:        reminders.NewRepository(dbClient.DB()),
		Sender:      messenger,
		Disclosures: associateRepo,
		Metrics:     reminderMetrics,
		Config:      cfg.Reminders,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminders service", err)
		os.Exit(1)
	}

	guard, err := inbound.NewIdempotencyGuard(redisClient, cfg.Inbound.IdempotencyTTL, "")
	if err != nil {
		logg.Error(context.Background(), "failed to create inbound idempotency guard", err)
		os.Exit(1)
	}
	inboundService, err := inbound.NewService(inbound.ServiceParams{
		Logger:      logg,
		Associates:  associateRepo,
		Assignments: assignments.NewRepository(dbClient.DB()),
		Companies:   companies.NewRepository(dbClient.DB()),
		Messenger:   messenger,
		Guard:       guard,
		Metrics:     reminderMetrics,
		Location:    loc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inbound service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	pingers := map[string]controllers.Pinger{"db": dbClient, "redis": redisClient}
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, pingers, redisClient, prometheus.DefaultGatherer, inboundService, reminderService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shutting down gracefully")
	}
}
