package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/crewtext-backend/internal/reminders"
	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
)

type stubReminderService struct {
	result     reminders.ReminderResult
	err        error
	sent       [][2]uuid.UUID
	lastUpdate *reminders.StatusUpdate
}

func (s *stubReminderService) SendTestReminder(ctx context.Context, jobID, associateID uuid.UUID) (reminders.ReminderResult, error) {
	s.sent = append(s.sent, [2]uuid.UUID{jobID, associateID})
	return s.result, s.err
}

func (s *stubReminderService) UpdateReminderStatus(ctx context.Context, jobID, associateID uuid.UUID, update reminders.StatusUpdate) error {
	s.lastUpdate = &update
	return s.err
}

func TestAdminSendTestReminder(t *testing.T) {
	jobID, associateID := uuid.New(), uuid.New()
	svc := &stubReminderService{result: reminders.ReminderResult{
		Success:      true,
		JobID:        jobID,
		AssociateID:  associateID,
		ReminderType: enums.ReminderDayBefore,
	}}
	body := []byte(`{"job_id":"` + jobID.String() + `","associate_id":"` + associateID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/reminders/test", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	AdminSendTestReminder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(svc.sent) != 1 || svc.sent[0][0] != jobID || svc.sent[0][1] != associateID {
		t.Fatalf("unexpected calls %v", svc.sent)
	}
}

func TestAdminSendTestReminderRejectsBadIDs(t *testing.T) {
	svc := &stubReminderService{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/reminders/test", bytes.NewReader([]byte(`{"job_id":"x","associate_id":""}`)))
	rec := httptest.NewRecorder()
	AdminSendTestReminder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(svc.sent) != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestAdminSendTestReminderFailedSend(t *testing.T) {
	svc := &stubReminderService{result: reminders.ReminderResult{Success: false, Error: "twilio: 21610"}}
	body := []byte(`{"job_id":"` + uuid.NewString() + `","associate_id":"` + uuid.NewString() + `"}`)
	rec := httptest.NewRecorder()
	AdminSendTestReminder(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/v1/reminders/test", bytes.NewReader(body)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestAdminSendTestReminderNotFound(t *testing.T) {
	svc := &stubReminderService{err: pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")}
	body := []byte(`{"job_id":"` + uuid.NewString() + `","associate_id":"` + uuid.NewString() + `"}`)
	rec := httptest.NewRecorder()
	AdminSendTestReminder(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/v1/reminders/test", bytes.NewReader(body)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func statusRequest(t *testing.T, jobID, associateID string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/assignments/"+jobID+"/"+associateID+"/reminder-status", bytes.NewReader([]byte(body)))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("jobId", jobID)
	rctx.URLParams.Add("associateId", associateID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminUpdateReminderStatus(t *testing.T) {
	svc := &stubReminderService{}
	req := statusRequest(t, uuid.NewString(), uuid.NewString(), `{"num_reminders":2,"last_reminder_time":"2025-01-09T09:00:00Z"}`)
	rec := httptest.NewRecorder()
	AdminUpdateReminderStatus(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastUpdate == nil || svc.lastUpdate.NumReminders == nil || *svc.lastUpdate.NumReminders != 2 {
		t.Fatalf("unexpected update %+v", svc.lastUpdate)
	}
	want := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	if svc.lastUpdate.LastReminderTime == nil || !svc.lastUpdate.LastReminderTime.Equal(want) {
		t.Fatalf("unexpected last reminder time %v", svc.lastUpdate.LastReminderTime)
	}
}

func TestAdminUpdateReminderStatusInvalidPath(t *testing.T) {
	svc := &stubReminderService{}
	rec := httptest.NewRecorder()
	AdminUpdateReminderStatus(svc, nil).ServeHTTP(rec, statusRequest(t, "nope", uuid.NewString(), `{}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.lastUpdate != nil {
		t.Fatalf("service should not be called")
	}
}

func TestAdminUpdateReminderStatusNegativeCount(t *testing.T) {
	svc := &stubReminderService{}
	rec := httptest.NewRecorder()
	AdminUpdateReminderStatus(svc, nil).ServeHTTP(rec, statusRequest(t, uuid.NewString(), uuid.NewString(), `{"num_reminders":-1}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
