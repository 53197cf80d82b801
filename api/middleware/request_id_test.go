package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/crewtext-backend/pkg/logger"
)

func TestRequestIDPrefersExplicitHeader(t *testing.T) {
	handler := RequestID(logger.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/twilio/sms", nil)
	req.Header.Set("X-Request-Id", "req-1")
	req.Header.Set("I-Twilio-Idempotency-Token", "tw-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
}

func TestRequestIDFallsBackToTwilioToken(t *testing.T) {
	handler := RequestID(nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/twilio/sms", nil)
	req.Header.Set("I-Twilio-Idempotency-Token", "tw-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "tw-1" {
		t.Fatalf("expected twilio token, got %q", got)
	}
}

func TestRequestIDGenerates(t *testing.T) {
	handler := RequestID(nil)(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestRecovererReturnsInternalError(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
