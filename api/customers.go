package api

import (
	"net/http"

	"github.com/vocdoni/payments-backend/errors"
	"github.com/vocdoni/payments-backend/validator"
)

// createCustomerHandler godoc
//
//	@Summary		Create a customer
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CustomerRequest	true	"Customer information"
//	@Success		200		{object}	stripe.Customer
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		502		{object}	errors.Error	"Payment platform error"
//	@Router			/customers [post]
func (a *API) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[CustomerRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	customer, err := a.service.CreateCustomer(r.Context(), req.Email, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, customer)
}

// attachPaymentMethodHandler godoc
//
//	@Summary		Attach a card to a customer
//	@Description	Attach a payment method and make it the default one for invoices. Attaching a card the
//	@Description	customer already has is a conflict.
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Customer ID"
//	@Param			request	body		AttachPaymentRequest	true	"Payment method"
//	@Success		200		{object}	SuccessResponse
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		409		{object}	errors.Error	"Already attached"
//	@Failure		502		{object}	errors.Error	"Payment platform error"
//	@Router			/customers/{id}/attach-payment [post]
func (a *API) attachPaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	customerID, ok := urlID(w, r)
	if !ok {
		return
	}
	req, ok := validator.Model[AttachPaymentRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if err := a.service.AttachInstrument(r.Context(), customerID, req.PaymentMethodID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, &SuccessResponse{Success: true})
}
