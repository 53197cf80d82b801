package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/crewtext-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	// Twilio resends a webhook with the same token, so retries share one id.
	twilioIdempotencyHeader = "I-Twilio-Idempotency-Token"
)

// RequestID tags the request with an id taken from X-Request-Id, then from
// Twilio's idempotency token, else a fresh uuid.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(requestIDHeader, requestIDFor(r))
			if logg == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := logg.WithRequestID(r.Context(), w.Header().Get(requestIDHeader))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestIDFor(r *http.Request) string {
	for _, header := range []string{requestIDHeader, twilioIdempotencyHeader} {
		if id := strings.TrimSpace(r.Header.Get(header)); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
