package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/angelmondragon/crewtext-backend/api/responses"
	"github.com/angelmondragon/crewtext-backend/api/validators"
	"github.com/angelmondragon/crewtext-backend/internal/scheduler"
	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
)

type SchedulerService interface {
	Stats() scheduler.Stats
	RunNow(ctx context.Context) error
	Config() scheduler.Config
	UpdateConfig(cfg scheduler.Config) error
}

func SchedulerStats(svc SchedulerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Stats())
	}
}

// SchedulerRun triggers a cycle outside the interval. The cycle runs in the
// background and the handler answers 202; with ?wait=true it blocks until the
// cycle, retries included, finishes.
func SchedulerRun(svc SchedulerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.Stats().IsRunning {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeConflict, scheduler.ErrCycleInProgress, "reminder cycle already in progress"))
			return
		}

		if r.URL.Query().Get("wait") == "true" {
			if err := svc.RunNow(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, runError(err))
				return
			}
			responses.WriteSuccess(w, svc.Stats())
			return
		}

		ctx := context.WithoutCancel(r.Context())
		go func() {
			if err := svc.RunNow(ctx); err != nil && logg != nil {
				logg.Error(ctx, "manual reminder cycle failed", err)
			}
		}()
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "started"})
	}
}

func runError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrCycleInProgress):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "reminder cycle already in progress")
	case errors.Is(err, scheduler.ErrLockHeld):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "reminder cycle running on another worker")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reminder cycle failed")
	}
}

type schedulerConfigBody struct {
	Enabled           *bool `json:"enabled"`
	IntervalMinutes   *int  `json:"interval_minutes" validate:"omitempty,min=1,max=1440"`
	MaxRetries        *int  `json:"max_retries" validate:"omitempty,min=1,max=10"`
	RetryDelayMinutes *int  `json:"retry_delay_minutes" validate:"omitempty,min=0,max=60"`
}

// SchedulerUpdateConfig applies a partial config; omitted fields keep their
// current values.
func SchedulerUpdateConfig(svc SchedulerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body schedulerConfigBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg := svc.Config()
		if body.Enabled != nil {
			cfg.Enabled = *body.Enabled
		}
		if body.IntervalMinutes != nil {
			cfg.Interval = time.Duration(*body.IntervalMinutes) * time.Minute
		}
		if body.MaxRetries != nil {
			cfg.MaxRetries = *body.MaxRetries
		}
		if body.RetryDelayMinutes != nil {
			cfg.RetryDelay = time.Duration(*body.RetryDelayMinutes) * time.Minute
		}

		if err := svc.UpdateConfig(cfg); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply scheduler config"))
			return
		}
		responses.WriteSuccess(w, svc.Stats())
	}
}
