package inbound

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/crewtext-backend/internal/associates"
	"github.com/angelmondragon/crewtext-backend/internal/messaging"
	"github.com/angelmondragon/crewtext-backend/internal/reminders"
	"github.com/angelmondragon/crewtext-backend/pkg/db/models"
	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
	"github.com/angelmondragon/crewtext-backend/pkg/metrics"
	"github.com/angelmondragon/crewtext-backend/pkg/types"
)

// ErrAssociateNotFound means no associate owns the sending number. No reply
// is sent in that case.
var ErrAssociateNotFound = errors.New("associate not found for sender")

type AssociateStore interface {
	GetAssociateByPhone(ctx context.Context, number string) (*models.Associate, error)
	OptOutAssociate(ctx context.Context, id uuid.UUID, channel enums.OptOutChannel, at time.Time) error
	OptInAssociate(ctx context.Context, id uuid.UUID, at time.Time) error
}

type AssignmentStore interface {
	GetActiveAssignments(ctx context.Context, associateID uuid.UUID, today types.Date) ([]models.JobAssignment, error)
	UpdateAssignmentStatus(ctx context.Context, jobID, associateID uuid.UUID, status enums.ConfirmationStatus, at time.Time) error
}

type CompanyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetByTwoWayNumber(ctx context.Context, number string) (*models.Company, error)
}

// Messenger sends replies.
type Messenger interface {
	RemindersNumber() string
	SendTwoWaySMS(ctx context.Context, msg messaging.OutboundSMS, fromNumber string) (messaging.SendResult, error)
}

// IncomingMessage is one SMS received from an associate.
type IncomingMessage struct {
	From       string
	To         string
	Body       string
	MessageSID string
	CompanyID  *uuid.UUID
}

// IncomingMessageResult describes how a message was handled.
type IncomingMessageResult struct {
	Action       enums.MessageAction `json:"action"`
	AssociateID  *uuid.UUID          `json:"associate_id,omitempty"`
	PhoneNumber  string              `json:"phone_number"`
	OriginalText string              `json:"original_text"`
	ResponseText string              `json:"response_text,omitempty"`
	Success      bool                `json:"success"`
	Duplicate    bool                `json:"duplicate,omitempty"`
	Error        string              `json:"error,omitempty"`
}

type ServiceParams struct {
	Logger      *logger.Logger
	Associates  AssociateStore
	Assignments AssignmentStore
	Companies   CompanyStore
	Messenger   Messenger
	Guard       *IdempotencyGuard
	Metrics     *metrics.ReminderMetrics
	Location    *time.Location
	Now         func() time.Time
}

// Service classifies inbound replies and applies their side effects.
type Service struct {
	logg        *logger.Logger
	associates  AssociateStore
	assignments AssignmentStore
	companies   CompanyStore
	messenger   Messenger
	guard       *IdempotencyGuard
	metrics     *metrics.ReminderMetrics
	loc         *time.Location
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Associates == nil {
		return nil, fmt.Errorf("associate store required")
	}
	if params.Assignments == nil {
		return nil, fmt.Errorf("assignment store required")
	}
	if params.Messenger == nil {
		return nil, fmt.Errorf("messenger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:        params.Logger,
		associates:  params.Associates,
		assignments: params.Assignments,
		companies:   params.Companies,
		messenger:   params.Messenger,
		guard:       params.Guard,
		metrics:     params.Metrics,
		loc:         loc,
		now:         now,
	}, nil
}

// ProcessIncomingMessage looks up the sender, classifies the text and runs
// the matching handler. A redelivered MessageSID is acknowledged without
// running anything.
func (s *Service) ProcessIncomingMessage(ctx context.Context, msg IncomingMessage) (IncomingMessageResult, error) {
	result := IncomingMessageResult{
		PhoneNumber:  msg.From,
		OriginalText: msg.Body,
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event":       "inbound.message",
		"from":        msg.From,
		"to":          msg.To,
		"message_sid": msg.MessageSID,
	})

	if s.guard != nil && msg.MessageSID != "" {
		seen, err := s.guard.CheckAndMark(ctx, msg.MessageSID)
		if err != nil {
			s.logg.Error(ctx, "idempotency check failed; processing anyway", err)
		} else if seen {
			s.logg.Info(ctx, "duplicate inbound message ignored")
			result.Duplicate = true
			result.Success = true
			return result, nil
		}
	}

	associate, err := s.associates.GetAssociateByPhone(ctx, msg.From)
	if errors.Is(err, associates.ErrNotFound) {
		s.logg.Warn(ctx, "inbound message from unknown number")
		result.Action = ParseMessageAction(msg.Body)
		result.Error = ErrAssociateNotFound.Error()
		s.metrics.IncInbound("not_found")
		return result, ErrAssociateNotFound
	}
	if err != nil {
		s.forget(ctx, msg.MessageSID)
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup associate by phone")
	}

	id := associate.ID
	result.AssociateID = &id
	result.Action = ParseMessageAction(msg.Body)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"associate_id": associate.ID.String(),
		"action":       result.Action.String(),
	})

	result = s.dispatch(ctx, result, associate, msg)
	s.metrics.IncInbound(result.Action.String())
	if result.Success {
		s.logg.Info(ctx, "inbound message handled")
	} else {
		s.logg.Warn(s.logg.WithField(ctx, "error", result.Error), "inbound message handled with errors")
	}
	return result, nil
}

func (s *Service) dispatch(ctx context.Context, result IncomingMessageResult, associate *models.Associate, msg IncomingMessage) IncomingMessageResult {
	switch result.Action {
	case enums.ActionConfirmation:
		return s.handleConfirmation(ctx, result, associate, msg)
	case enums.ActionHelpRequest:
		return s.reply(ctx, result, msg, helpReply, nil)
	case enums.ActionOptOut:
		return s.handleOptOut(ctx, result, associate, msg)
	case enums.ActionOptIn:
		return s.handleOptIn(ctx, result, associate, msg)
	case enums.ActionUnknown:
		return s.reply(ctx, result, msg, fallbackReply, nil)
	}
	return s.reply(ctx, result, msg, fallbackReply, nil)
}

// handleConfirmation marks each upcoming assignment by how close its shift is:
// within 6h CONFIRMED, within 24h LIKELY_CONFIRMED, otherwise SOFT_CONFIRMED.
// Shifts that already started today are left alone.
func (s *Service) handleConfirmation(ctx context.Context, result IncomingMessageResult, associate *models.Associate, msg IncomingMessage) IncomingMessageResult {
	now := s.now().UTC()
	today := types.DateOf(now.In(s.loc))

	active, err := s.assignments.GetActiveAssignments(ctx, associate.ID, today)
	if err != nil {
		s.logg.Error(ctx, "failed to load active assignments", err)
		return s.reply(ctx, result, msg, nothingToConfirmReply(associate), err)
	}

	var (
		updated    int
		updateErrs []error
	)
	for _, assignment := range active {
		startsAt, known := s.startsAt(ctx, assignment)
		if known && startsAt.Before(now) {
			continue
		}
		status := confirmationStatusFor(now, startsAt)
		updated++
		err := s.assignments.UpdateAssignmentStatus(ctx, assignment.JobID, assignment.AssociateID, status, now)
		if err != nil {
			actx := s.logg.WithAssignment(ctx, assignment.JobID.String(), assignment.AssociateID.String())
			s.logg.Error(actx, "failed to update confirmation status", err)
			updateErrs = append(updateErrs, err)
		}
	}
	if updated == 0 {
		return s.reply(ctx, result, msg, nothingToConfirmReply(associate), nil)
	}
	return s.reply(ctx, result, msg, confirmationReply(associate, updated), multierr.Combine(updateErrs...))
}

// startsAt reports false when the start time could not be parsed and the
// start of the work date was used instead.
func (s *Service) startsAt(ctx context.Context, assignment models.JobAssignment) (time.Time, bool) {
	startsAt, err := reminders.NormalizeStartTime(assignment.WorkDate, assignment.StartTime)
	if err != nil {
		actx := s.logg.WithAssignment(ctx, assignment.JobID.String(), assignment.AssociateID.String())
		s.logg.Warn(s.logg.WithField(actx, "start_time", assignment.StartTime), "unparseable start time; using start of work date")
		return assignment.WorkDate.In(s.loc), false
	}
	return startsAt, true
}

func confirmationStatusFor(now, startsAt time.Time) enums.ConfirmationStatus {
	hours := startsAt.Sub(now).Hours()
	switch {
	case hours <= 6:
		return enums.ConfirmationConfirmed
	case hours <= 24:
		return enums.ConfirmationLikelyConfirmed
	default:
		return enums.ConfirmationSoftConfirmed
	}
}

func (s *Service) handleOptOut(ctx context.Context, result IncomingMessageResult, associate *models.Associate, msg IncomingMessage) IncomingMessageResult {
	channel := enums.OptOutChannelTwoWay
	if s.isRemindersNumber(msg.To) {
		channel = enums.OptOutChannelReminders
	}
	ctx = s.logg.WithField(ctx, "channel", string(channel))
	err := s.associates.OptOutAssociate(ctx, associate.ID, channel, s.now().UTC())
	if err != nil {
		s.logg.Error(ctx, "failed to record opt-out", err)
	}
	return s.reply(ctx, result, msg, optOutReply, err)
}

func (s *Service) handleOptIn(ctx context.Context, result IncomingMessageResult, associate *models.Associate, msg IncomingMessage) IncomingMessageResult {
	err := s.associates.OptInAssociate(ctx, associate.ID, s.now().UTC())
	if err != nil {
		s.logg.Error(ctx, "failed to record opt-in", err)
	}
	return s.reply(ctx, result, msg, optInReply, err)
}

// reply always attempts to send text. sideEffectErr is a failure that happened
// before the reply and marks the result unsuccessful without suppressing it.
func (s *Service) reply(ctx context.Context, result IncomingMessageResult, msg IncomingMessage, text string, sideEffectErr error) IncomingMessageResult {
	from := s.replyNumber(ctx, msg)
	_, sendErr := s.messenger.SendTwoWaySMS(ctx, messaging.OutboundSMS{To: msg.From, Body: text}, from)
	if sendErr != nil {
		s.logg.Error(s.logg.WithField(ctx, "reply_from", from), "failed to send reply", sendErr)
	} else {
		result.ResponseText = text
	}

	var msgs []string
	for _, err := range []error{sideEffectErr, sendErr} {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	result.Success = len(msgs) == 0
	result.Error = strings.Join(msgs, "; ")
	return result
}

func (s *Service) forget(ctx context.Context, messageSID string) {
	if s.guard == nil || messageSID == "" {
		return
	}
	if err := s.guard.Delete(context.WithoutCancel(ctx), messageSID); err != nil {
		s.logg.Error(ctx, "failed to clear idempotency key", err)
	}
}
