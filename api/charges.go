package api

import (
	"net/http"

	"github.com/vocdoni/payments-backend/errors"
	"github.com/vocdoni/payments-backend/payments"
	"github.com/vocdoni/payments-backend/validator"
)

// chargeHandler godoc
//
//	@Summary		Charge a customer now
//	@Description	Charge the customer's card off session. A declined card, or one that needs the cardholder to
//	@Description	authenticate, answers 402.
//	@Tags			charges
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ChargeRequest	true	"Charge, amount in cents"
//	@Success		200		{object}	ChargeResponse
//	@Failure		400		{object}	errors.Error	"Invalid input data or no card"
//	@Failure		402		{object}	errors.Error	"Payment declined"
//	@Failure		502		{object}	errors.Error	"Payment platform error"
//	@Router			/charge [post]
func (a *API) chargeHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[ChargeRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	amount, err := minorAmount(req.Amount)
	if err != nil {
		errors.ErrInvalidAmount.WithErr(err).Write(w)
		return
	}
	intentID, err := a.service.ChargeCustomerImmediately(r.Context(), req.CustomerID, amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, &ChargeResponse{PaymentIntentID: intentID})
}

// escrowHandler returns the handler that authorizes a manual-capture payment
// tagged with the given business purpose.
//
//	@Summary		Authorize an escrow payment
//	@Description	Authorize a payment routed to a connected account, captured later on fulfilment.
//	@Tags			charges
//	@Accept			json
//	@Produce		json
//	@Param			request	body		EscrowRequest	true	"Escrow, amount in cents"
//	@Success		200		{object}	payments.EscrowIntent
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		502		{object}	errors.Error	"Payment platform error"
//	@Router			/escrow/services [post]
//	@Router			/escrow/deliveries [post]
func (a *API) escrowHandler(purpose string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := validator.Model[EscrowRequest](r.Context())
		if !ok {
			errors.ErrMalformedBody.Write(w)
			return
		}
		amount, err := minorAmount(req.Amount)
		if err != nil {
			errors.ErrInvalidAmount.WithErr(err).Write(w)
			return
		}
		intent, err := a.service.CreateEscrowIntent(r.Context(), &payments.EscrowRequest{
			CustomerID:           req.CustomerID,
			Amount:               amount,
			Currency:             req.Currency,
			DestinationAccountID: req.DestinationAccountID,
			Purpose:              purpose,
			Metadata:             req.Metadata,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpWriteJSON(w, intent)
	}
}

// captureEscrowHandler godoc
//
//	@Summary		Capture an escrow payment
//	@Tags			charges
//	@Produce		json
//	@Param			id	path		string	true	"Payment intent ID"
//	@Success		200	{object}	CaptureResponse
//	@Failure		502	{object}	errors.Error	"Payment platform error"
//	@Router			/escrow/{id}/capture [post]
func (a *API) captureEscrowHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	intent, err := a.service.CaptureEscrowIntent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, &CaptureResponse{
		PaymentIntentID: intent.ID,
		Status:          string(intent.Status),
		AmountReceived:  intent.AmountReceived,
	})
}
