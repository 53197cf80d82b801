package messaging

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
	"github.com/angelmondragon/crewtext-backend/pkg/twilio"
)

type fakeSender struct {
	requests []twilio.SendMessageRequest
	err      error
}

func (f *fakeSender) SendMessage(ctx context.Context, req twilio.SendMessageRequest) (*twilio.Message, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &twilio.Message{SID: "SM123", Status: "queued"}, nil
}

func newTestService(t *testing.T, sender *fakeSender) *Service {
	t.Helper()
	svc, err := NewService(sender, "(415) 555-0000", nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSendReminderSMSUsesRemindersNumber(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(t, sender)

	res, err := svc.SendReminderSMS(context.Background(), OutboundSMS{To: "415-525-2030", Body: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.MessageID != "SM123" || res.To != "+14155252030" {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := sender.requests[0].From; got != "+14155550000" {
		t.Fatalf("expected reminders number sender, got %s", got)
	}
}

func TestSendTwoWaySMSFallsBack(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(t, sender)

	if _, err := svc.SendTwoWaySMS(context.Background(), OutboundSMS{To: "+14155252030", Body: "hi"}, "+14159990000"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SendTwoWaySMS(context.Background(), OutboundSMS{To: "+14155252030", Body: "hi"}, ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sender.requests[0].From != "+14159990000" {
		t.Fatalf("expected company number, got %s", sender.requests[0].From)
	}
	if sender.requests[1].From != "+14155550000" {
		t.Fatalf("expected reminders fallback, got %s", sender.requests[1].From)
	}
}

func TestSendWrapsProviderErrors(t *testing.T) {
	sender := &fakeSender{err: &twilio.RestError{Status: 400, Code: 21211, Message: "invalid To"}}
	svc := newTestService(t, sender)

	_, err := svc.SendReminderSMS(context.Background(), OutboundSMS{To: "+14155252030", Body: "hi"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	var restErr *twilio.RestError
	if !errors.As(err, &restErr) {
		t.Fatalf("expected provider error in chain, got %v", err)
	}
}

func TestSendRejectsBadRecipient(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(t, sender)

	_, err := svc.SendReminderSMS(context.Background(), OutboundSMS{To: "123", Body: "hi"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(sender.requests) != 0 {
		t.Fatal("provider should not be called")
	}
}
