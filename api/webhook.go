package api

import (
	"io"
	"net/http"

	"github.com/vocdoni/payments-backend/errors"
	"github.com/vocdoni/payments-backend/payments"
	"go.vocdoni.io/dvote/log"
)

// MaxWebhookBodyBytes bounds the webhook payload read.
const MaxWebhookBodyBytes = int64(65536)

// webhookHandler godoc
//
//	@Summary		Receive platform events
//	@Description	Verifies the Stripe-Signature header against the raw body and runs the handler of the event
//	@Description	type. Unknown event types and redeliveries of handled events are acknowledged. A handler
//	@Description	failure answers 500 so the platform delivers the event again.
//	@Tags			webhook
//	@Accept			json
//	@Produce		json
//	@Param			body	body		string	true	"Platform event payload"
//	@Success		200		{object}	WebhookResponse
//	@Failure		400		{object}	errors.Error	"Invalid signature"
//	@Failure		500		{object}	errors.Error	"Handler failure"
//	@Router			/webhook [post]
func (a *API) webhookHandler(w http.ResponseWriter, r *http.Request) {
	// the signature covers the exact bytes, read them untouched
	r.Body = http.MaxBytesReader(w, r.Body, MaxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		errors.ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	signature := r.Header.Get(payments.SignatureHeader)
	if signature == "" {
		errors.ErrInvalidSignature.Withf("missing %s header", payments.SignatureHeader).Write(w)
		return
	}
	outcome, err := a.service.Webhooks.HandleWebhook(r.Context(), payload, signature)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	log.Debugw("webhook acknowledged", "outcome", outcome)
	httpWriteJSON(w, &WebhookResponse{Received: true})
}
