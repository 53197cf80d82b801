package twilio

import (
	"net/url"
	"strings"

	twclient "github.com/twilio/twilio-go/client"
)

// SignatureHeader carries the request signature on inbound webhooks.
const SignatureHeader = "X-Twilio-Signature"

// ValidateSignature reports whether signature matches the request. Webhook
// parameters are single valued, so only the first value of each is signed.
func ValidateSignature(authToken, fullURL string, form url.Values, signature string) bool {
	signature = strings.TrimSpace(signature)
	if authToken == "" || signature == "" {
		return false
	}
	params := make(map[string]string, len(form))
	for k := range form {
		params[k] = form.Get(k)
	}
	validator := twclient.NewRequestValidator(authToken)
	return validator.Validate(fullURL, params, signature)
}
