package messaging

import (
	"context"
	stdErrors "errors"
	"strings"

	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
	"github.com/angelmondragon/crewtext-backend/pkg/phone"
	"github.com/angelmondragon/crewtext-backend/pkg/twilio"
)

// OutboundSMS is a single message to one recipient.
type OutboundSMS struct {
	To   string
	Body string
}

// SendResult describes a message the provider accepted.
type SendResult struct {
	MessageID string
	Status    string
	To        string
	From      string
}

// Service sends reminder and two-way SMS through the provider.
type Service struct {
	sender          twilio.Sender
	remindersNumber string
	logg            *logger.Logger
}

func NewService(sender twilio.Sender, remindersNumber string, logg *logger.Logger) (*Service, error) {
	if sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sms sender required")
	}
	from, err := phone.Normalize(remindersNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reminders number")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{sender: sender, remindersNumber: from, logg: logg}, nil
}

// RemindersNumber is the dedicated outbound reminders line in E.164.
func (s *Service) RemindersNumber() string {
	return s.remindersNumber
}

// SendReminderSMS sends from the reminders number.
func (s *Service) SendReminderSMS(ctx context.Context, msg OutboundSMS) (SendResult, error) {
	return s.send(ctx, msg, s.remindersNumber)
}

// SendTwoWaySMS sends from fromNumber, falling back to the reminders number
// when it is empty or malformed.
func (s *Service) SendTwoWaySMS(ctx context.Context, msg OutboundSMS, fromNumber string) (SendResult, error) {
	from := s.remindersNumber
	if strings.TrimSpace(fromNumber) != "" {
		if normalized, err := phone.Normalize(fromNumber); err == nil {
			from = normalized
		} else {
			s.logg.Warn(s.logg.WithField(ctx, "from", fromNumber), "invalid two-way sender; using reminders number")
		}
	}
	return s.send(ctx, msg, from)
}

// FormatPhoneNumber normalizes to E.164.
func (s *Service) FormatPhoneNumber(raw string) (string, error) {
	return phone.Normalize(raw)
}

func (s *Service) send(ctx context.Context, msg OutboundSMS, from string) (SendResult, error) {
	to, err := phone.Normalize(msg.To)
	if err != nil {
		return SendResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "recipient phone number")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return SendResult{}, pkgerrors.New(pkgerrors.CodeValidation, "message body required")
	}

	out, err := s.sender.SendMessage(ctx, twilio.SendMessageRequest{
		To:   to,
		From: from,
		Body: msg.Body,
	})
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send sms")
		var restErr *twilio.RestError
		if stdErrors.As(err, &restErr) {
			wrapped = wrapped.WithDetails(map[string]any{
				"http_status":   restErr.Status,
				"provider_code": restErr.Code,
			})
		}
		return SendResult{}, wrapped
	}

	return SendResult{
		MessageID: out.SID,
		Status:    out.Status,
		To:        to,
		From:      from,
	}, nil
}
