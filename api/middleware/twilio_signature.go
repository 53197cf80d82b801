package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/crewtext-backend/api/responses"
	"github.com/angelmondragon/crewtext-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
	"github.com/angelmondragon/crewtext-backend/pkg/twilio"
)

// TwilioSignature rejects webhook requests whose X-Twilio-Signature does not
// match. The signed URL is the configured public webhook URL when set,
// otherwise the URL reconstructed from the request.
func TwilioSignature(cfg config.TwilioConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.ValidateWebhooks {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body"))
				return
			}
			fullURL := cfg.WebhookURL
			if fullURL == "" {
				fullURL = requestURL(r)
			}
			if !twilio.ValidateSignature(cfg.AuthToken, fullURL, r.PostForm, r.Header.Get(twilio.SignatureHeader)) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid twilio signature"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host + r.URL.RequestURI()
}
