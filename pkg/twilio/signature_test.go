package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"testing"
)

// sign reproduces the provider's webhook signature for test requests.
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

func TestValidateSignature(t *testing.T) {
	endpoint := "https://sms.example.org/api/v1/webhooks/twilio/sms"
	form := url.Values{"From": {"+14155252030"}, "Body": {"C"}, "MessageSid": {"SM1"}}
	sig := sign("tok", endpoint, form)

	if !ValidateSignature("tok", endpoint, form, sig) {
		t.Fatalf("expected signature to validate")
	}
	if ValidateSignature("other", endpoint, form, sig) {
		t.Fatalf("expected wrong token to fail")
	}
	tampered := url.Values{"From": {"+14155252030"}, "Body": {"STOP"}, "MessageSid": {"SM1"}}
	if ValidateSignature("tok", endpoint, tampered, sig) {
		t.Fatalf("expected tampered body to fail")
	}
	if ValidateSignature("tok", endpoint, form, "") || ValidateSignature("", endpoint, form, sig) {
		t.Fatalf("expected missing token or signature to fail")
	}
}
