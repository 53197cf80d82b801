package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/crewtext-backend/api/responses"
	"github.com/angelmondragon/crewtext-backend/api/validators"
	"github.com/angelmondragon/crewtext-backend/internal/reminders"
	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
)

type ReminderService interface {
	SendTestReminder(ctx context.Context, jobID, associateID uuid.UUID) (reminders.ReminderResult, error)
	UpdateReminderStatus(ctx context.Context, jobID, associateID uuid.UUID, update reminders.StatusUpdate) error
}

type testReminderBody struct {
	JobID       string `json:"job_id" validate:"required,uuid"`
	AssociateID string `json:"associate_id" validate:"required,uuid"`
}

// AdminSendTestReminder sends the reminder an assignment would get right now.
func AdminSendTestReminder(svc ReminderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body testReminderBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		jobID := uuid.MustParse(body.JobID)
		associateID := uuid.MustParse(body.AssociateID)

		result, err := svc.SendTestReminder(r.Context(), jobID, associateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "reminder send failed").
				WithDetails(map[string]any{"result": result}))
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type reminderStatusBody struct {
	NumReminders     *int       `json:"num_reminders" validate:"omitempty,min=0"`
	LastReminderTime *time.Time `json:"last_reminder_time"`
}

// AdminUpdateReminderStatus corrects an assignment's reminder budget or last
// reminder time.
func AdminUpdateReminderStatus(svc ReminderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "jobId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job id"))
			return
		}
		associateID, err := uuid.Parse(chi.URLParam(r, "associateId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid associate id"))
			return
		}

		var body reminderStatusBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		update := reminders.StatusUpdate{NumReminders: body.NumReminders, LastReminderTime: body.LastReminderTime}
		if err := svc.UpdateReminderStatus(r.Context(), jobID, associateID, update); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"job_id":       jobID,
			"associate_id": associateID,
			"updated":      true,
		})
	}
}
