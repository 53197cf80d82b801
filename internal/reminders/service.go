package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/crewtext-backend/internal/messaging"
	"github.com/angelmondragon/crewtext-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
	"github.com/angelmondragon/crewtext-backend/pkg/metrics"
	"github.com/angelmondragon/crewtext-backend/pkg/types"
	"github.com/google/uuid"
)

const defaultSendDelay = 200 * time.Millisecond

// Sender delivers reminder SMS from the reminders number.
type Sender interface {
	SendReminderSMS(ctx context.Context, msg messaging.OutboundSMS) (messaging.SendResult, error)
}

// DisclosureStore claims the one-time opt-out disclosure per associate.
type DisclosureStore interface {
	ClaimOptOutDisclosure(ctx context.Context, associateID uuid.UUID, at time.Time) (bool, error)
	ReleaseOptOutDisclosure(ctx context.Context, associateID uuid.UUID) error
}

type ServiceParams struct {
	Logger      *logger.Logger
	Repo        Repository
	Sender      Sender
	Composer    *Composer
	Disclosures DisclosureStore
	Metrics     *metrics.ReminderMetrics
	Config      config.RemindersConfig
	Now         func() time.Time
}

// Service fetches due reminders, sends them and records the sends.
type Service struct {
	logg        *logger.Logger
	repo        Repository
	sender      Sender
	composer    *Composer
	disclosures DisclosureStore
	metrics     *metrics.ReminderMetrics
	loc         *time.Location
	due         DueOptions
	sendDelay   time.Duration
	disclose    bool
	now         func() time.Time
	sleep       func(context.Context, time.Duration)
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("reminder repository required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("message sender required")
	}
	loc, err := params.Config.Location()
	if err != nil {
		return nil, err
	}
	composer := params.Composer
	if composer == nil {
		composer, err = NewComposer(loc, params.Config.TemplatesPath)
		if err != nil {
			return nil, err
		}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	delay := params.Config.SendDelay
	if delay < 0 {
		delay = defaultSendDelay
	}
	return &Service{
		logg:        params.Logger,
		repo:        params.Repo,
		sender:      params.Sender,
		composer:    composer,
		disclosures: params.Disclosures,
		metrics:     params.Metrics,
		loc:         loc,
		due: DueOptions{
			Gaps:              GapPolicy{DayOf: params.Config.DayOfMinGap, OtherDay: params.Config.DefaultMinGap},
			MorningHoursAhead: params.Config.MorningHoursAhead,
		},
		sendDelay: delay,
		disclose:  params.Config.DisclosureEnabled && params.Disclosures != nil,
		now:       now,
		sleep:     sleepCtx,
	}, nil
}

// ProcessScheduledReminders sends every due reminder once. Only a failure to
// assemble the candidate set is returned as an error; per-send failures are
// reported in the results.
func (s *Service) ProcessScheduledReminders(ctx context.Context) ([]ReminderResult, error) {
	now := s.now().UTC()
	today := types.DateOf(now.In(s.loc))

	due, err := s.repo.GetDueReminders(ctx, now, today, s.due)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load due reminders")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"event": "reminders.batch", "due": len(due)})
	if len(due) == 0 {
		s.logg.Debug(ctx, "no reminders due")
		return []ReminderResult{}, nil
	}

	results := make([]ReminderResult, 0, len(due))
	for i, assignment := range due {
		if i > 0 {
			s.sleep(ctx, s.sendDelay)
		}
		results = append(results, s.sendOne(ctx, assignment, now))
	}

	sent := 0
	for _, r := range results {
		if r.Success {
			sent++
		}
	}
	summaryCtx := s.logg.WithFields(ctx, map[string]any{"sent": sent, "failed": len(results) - sent})
	s.logg.Info(summaryCtx, "reminder batch complete")
	return results, nil
}

// SendTestReminder sends the reminder one assignment would get right now,
// regardless of its windows or gap.
func (s *Service) SendTestReminder(ctx context.Context, jobID, associateID uuid.UUID) (ReminderResult, error) {
	if jobID == uuid.Nil || associateID == uuid.Nil {
		return ReminderResult{}, pkgerrors.New(pkgerrors.CodeValidation, "job_id and associate_id are required")
	}
	assignment, err := s.repo.GetReminderAssignment(ctx, jobID, associateID)
	if errors.Is(err, ErrAssignmentNotFound) {
		return ReminderResult{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "job assignment not found")
	}
	if err != nil {
		return ReminderResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job assignment")
	}
	if assignment.OptedOut {
		return ReminderResult{}, pkgerrors.New(pkgerrors.CodeConflict, "associate has opted out of reminders")
	}
	ctx = s.logg.WithField(ctx, "event", "reminders.test")
	return s.sendOne(ctx, *assignment, s.now().UTC()), nil
}

// UpdateReminderStatus applies an administrative correction.
func (s *Service) UpdateReminderStatus(ctx context.Context, jobID, associateID uuid.UUID, update StatusUpdate) error {
	if update.NumReminders == nil && update.LastReminderTime == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "num_reminders or last_reminder_time required")
	}
	if update.NumReminders != nil && *update.NumReminders < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "num_reminders must be non-negative")
	}
	err := s.repo.UpdateReminderStatus(ctx, jobID, associateID, update)
	if errors.Is(err, ErrAssignmentNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "job assignment not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reminder status")
	}
	return nil
}

func (s *Service) sendOne(ctx context.Context, a Assignment, now time.Time) ReminderResult {
	reminderType := ClassifyReminderType(now, a.StartsAt)
	ctx = s.logg.WithAssignment(ctx, a.JobID.String(), a.AssociateID.String())
	ctx = s.logg.WithField(ctx, "reminder_type", reminderType.String())

	result := ReminderResult{
		JobID:        a.JobID,
		AssociateID:  a.AssociateID,
		PhoneNumber:  a.PhoneNumber,
		ReminderType: reminderType,
	}

	body, err := s.composer.Compose(reminderType, a)
	if err != nil {
		return s.failed(ctx, result, err)
	}

	sent, err := s.sender.SendReminderSMS(ctx, messaging.OutboundSMS{To: a.PhoneNumber, Body: body})
	if err != nil {
		return s.failed(ctx, result, err)
	}
	result.Success = true
	result.MessageID = sent.MessageID
	s.metrics.IncSent(reminderType.String())

	outcome, err := s.repo.RecordReminderSent(ctx, a.JobID, a.AssociateID, now)
	switch {
	case err != nil:
		s.logg.Error(ctx, "reminder sent but status update failed", err)
	case !outcome.Applied:
		s.logg.Warn(ctx, "reminder sent with no remaining budget; counter left at zero")
	default:
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"message_id":    sent.MessageID,
			"num_reminders": outcome.Remaining,
		}), "reminder sent")
	}

	s.sendDisclosure(ctx, a, now)
	return result
}

func (s *Service) failed(ctx context.Context, result ReminderResult, err error) ReminderResult {
	result.Success = false
	result.Error = err.Error()
	s.metrics.IncFailed(result.ReminderType.String())
	s.logg.Error(ctx, "reminder send failed", err)
	return result
}

// sendDisclosure is best effort; every error is logged and dropped.
func (s *Service) sendDisclosure(ctx context.Context, a Assignment, now time.Time) {
	if !s.disclose {
		return
	}
	ctx = s.logg.WithField(ctx, "event", "reminders.disclosure")

	claimed, err := s.disclosures.ClaimOptOutDisclosure(ctx, a.AssociateID, now)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("opt-out disclosure claim failed: %v", err))
		return
	}
	if !claimed {
		return
	}

	body, err := s.composer.Disclosure(a)
	if err == nil {
		_, err = s.sender.SendReminderSMS(ctx, messaging.OutboundSMS{To: a.PhoneNumber, Body: body})
	}
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("opt-out disclosure send failed: %v", err))
		if relErr := s.disclosures.ReleaseOptOutDisclosure(ctx, a.AssociateID); relErr != nil {
			s.logg.Warn(ctx, fmt.Sprintf("opt-out disclosure release failed: %v", relErr))
		}
		return
	}
	s.logg.Info(ctx, "opt-out disclosure sent")
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
