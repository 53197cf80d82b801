package webhooks

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/crewtext-backend/api/responses"
	"github.com/angelmondragon/crewtext-backend/api/validators"
	"github.com/angelmondragon/crewtext-backend/internal/inbound"
	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
)

type IncomingMessageProcessor interface {
	ProcessIncomingMessage(ctx context.Context, msg inbound.IncomingMessage) (inbound.IncomingMessageResult, error)
}

type twilioSMSForm struct {
	From       string `json:"From" validate:"required"`
	To         string `json:"To"`
	Body       string `json:"Body"`
	MessageSID string `json:"MessageSid"`
}

// TwilioSMS accepts Twilio's inbound SMS callback. Replies are sent through
// the REST API, so the TwiML response is always empty. Unknown senders are
// acknowledged so Twilio does not retry them.
func TwilioSMS(svc IncomingMessageProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inbound service unavailable"))
			return
		}
		if err := r.ParseForm(); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body"))
			return
		}

		form := twilioSMSForm{
			From:       strings.TrimSpace(r.PostForm.Get("From")),
			To:         strings.TrimSpace(r.PostForm.Get("To")),
			Body:       validators.SanitizeString(r.PostForm.Get("Body"), validators.MaxSMSBodyLength),
			MessageSID: strings.TrimSpace(r.PostForm.Get("MessageSid")),
		}
		if err := validators.ValidateStruct(&form); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		msg := inbound.IncomingMessage{
			From:       form.From,
			To:         form.To,
			Body:       form.Body,
			MessageSID: form.MessageSID,
		}
		if raw := r.URL.Query().Get("company_id"); raw != "" {
			companyID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company_id"))
				return
			}
			msg.CompanyID = &companyID
		}

		if _, err := svc.ProcessIncomingMessage(ctx, msg); err != nil && !errors.Is(err, inbound.ErrAssociateNotFound) {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteTwiML(w)
	}
}
