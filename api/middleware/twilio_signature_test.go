package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/angelmondragon/crewtext-backend/pkg/config"
	"github.com/angelmondragon/crewtext-backend/pkg/twilio"
)

func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	payload := fullURL
	for _, k := range keys {
		payload += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signedRequest(t *testing.T, token, signURL string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/webhooks/twilio/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(twilio.SignatureHeader, sign(token, signURL, form))
	return req
}

func TestTwilioSignature(t *testing.T) {
	form := url.Values{"From": {"+14155252030"}, "Body": {"C"}, "MessageSid": {"SM1"}}
	cfg := config.TwilioConfig{AuthToken: "tok", ValidateWebhooks: true}
	handler := TwilioSignature(cfg, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, signedRequest(t, "tok", "http://example.com/api/v1/webhooks/twilio/sms", form))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, signedRequest(t, "other", "http://example.com/api/v1/webhooks/twilio/sms", form))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestTwilioSignatureUsesConfiguredURL(t *testing.T) {
	form := url.Values{"Body": {"STOP"}}
	public := "https://sms.example.org/api/v1/webhooks/twilio/sms"
	cfg := config.TwilioConfig{AuthToken: "tok", ValidateWebhooks: true, WebhookURL: public}
	handler := TwilioSignature(cfg, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, signedRequest(t, "tok", public, form))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestTwilioSignatureDisabled(t *testing.T) {
	handler := TwilioSignature(config.TwilioConfig{ValidateWebhooks: false}, nil)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("Body=hi"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
