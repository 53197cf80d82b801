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
	"github.com/angelmondragon/crewtext-backend/internal/associates"
	"github.com/angelmondragon/crewtext-backend/internal/messaging"
	"github.com/angelmondragon/crewtext-backend/internal/reminders"
	"github.com/angelmondragon/crewtext-backend/internal/scheduler"
	"github.com/angelmondragon/crewtext-backend/pkg/config"
	"github.com/angelmondragon/crewtext-backend/pkg/db"
	"github.com/angelmondragon/crewtext-backend/pkg/instance"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
	"github.com/angelmondragon/crewtext-backend/pkg/metrics"
	"github.com/angelmondragon/crewtext-backend/pkg/migrate"
	"github.com/angelmondragon/crewtext-backend/pkg/redis"
	"github.com/angelmondragon/crewtext-backend/pkg/twilio"
)

const (
	lockName        = "reminder-worker"
	shutdownTimeout = 30 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reminder-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "reminder-worker"

	logg = logger.New(logger.Options{
		ServiceName: "reminder-worker",
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

	reminderService, err := reminders.NewService(reminders.ServiceParams{
		Logger:      logg,
		Repo:        reminders.NewRepository(dbClient.DB()),
		Sender:      messenger,
		Disclosures: associates.NewRepository(dbClient.DB()),
		Metrics:     metrics.NewReminderMetrics(prometheus.DefaultRegisterer),
		Config:      cfg.Reminders,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminders service", err)
		os.Exit(1)
	}

	lock, err := scheduler.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Scheduler.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler lock", err)
		os.Exit(1)
	}

	sched, err := scheduler.New(scheduler.Params{
		Logger:  logg,
		Job:     scheduler.NewReminderJob(reminderService, logg),
		Lock:    lock,
		Metrics: metrics.NewSchedulerMetrics(prometheus.DefaultRegisterer),
		Config:  scheduler.ConfigFrom(cfg.Scheduler),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting reminder worker")

	if err := sched.Start(ctx); err != nil {
		logg.Error(ctx, "failed to start scheduler", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{"db": dbClient, "redis": redisClient}
	adminServer := &http.Server{
		Addr:              ":" + cfg.Scheduler.AdminPort,
		Handler:           routes.NewAdminRouter(cfg, logg, pingers, redisClient, prometheus.DefaultGatherer, sched),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "scheduler admin server stopped unexpectedly", err)
			stop()
		}
	}()

	<-ctx.Done()
	logg.Info(ctx, "reminder worker shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "scheduler admin server shutdown failed", err)
	}
	sched.Stop()
	if err := sched.Wait(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "reminder cycle did not finish before shutdown", err)
	}
}
