package api

import (
	"net/http"

	"github.com/vocdoni/payments-backend/errors"
	"github.com/vocdoni/payments-backend/payments"
	"github.com/vocdoni/payments-backend/validator"
)

// createSubscriptionHandler godoc
//
//	@Summary		Subscribe a customer to a price
//	@Description	A startDate in the future becomes the trial end, a past one is ignored.
//	@Tags			subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SubscriptionRequest	true	"Subscription"
//	@Success		200		{object}	stripe.Subscription
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		502		{object}	errors.Error	"Payment platform error"
//	@Router			/subscriptions [post]
func (a *API) createSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[SubscriptionRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	startDate, err := optionalTime(req.StartDate)
	if err != nil {
		errors.ErrValidation.WithErr(err).Write(w)
		return
	}
	sub, err := a.service.CreateSubscription(r.Context(), req.CustomerID, req.PriceID, startDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, sub)
}

// cancelSubscriptionHandler godoc
//
//	@Summary		Cancel a subscription at the end of its period
//	@Tags			subscriptions
//	@Produce		json
//	@Param			id	path		string	true	"Subscription ID"
//	@Success		200	{object}	stripe.Subscription
//	@Failure		502	{object}	errors.Error	"Payment platform error"
//	@Router			/subscriptions/{id}/cancel [post]
func (a *API) cancelSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	sub, err := a.service.CancelAtPeriodEnd(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, sub)
}

// createPriceHandler godoc
//
//	@Summary		Create a monthly price for a plan
//	@Description	planPrice is in major units (12.50), it is converted to cents exactly.
//	@Tags			subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PriceRequest	true	"Plan"
//	@Success		200		{object}	stripe.Price
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		502		{object}	errors.Error	"Payment platform error"
//	@Router			/prices [post]
func (a *API) createPriceHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[PriceRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	cents, err := majorAmount(req.PlanPrice)
	if err != nil {
		errors.ErrInvalidAmount.WithErr(err).Write(w)
		return
	}
	price, err := a.service.CreatePrice(r.Context(), req.PlanName, cents)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, price)
}

// createCheckoutSessionHandler godoc
//
//	@Summary		Create a hosted checkout session
//	@Tags			subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CheckoutRequest	true	"Checkout"
//	@Success		200		{object}	CheckoutResponse
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		502		{object}	errors.Error	"Payment platform error"
//	@Router			/checkout/sessions [post]
func (a *API) createCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[CheckoutRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	session, err := a.service.CreateCheckoutSession(r.Context(), &payments.CheckoutRequest{
		PriceID:    req.PriceID,
		Quantity:   req.Quantity,
		Mode:       req.Mode,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, &CheckoutResponse{SessionID: session.ID, URL: session.URL})
}

// checkoutSessionHandler godoc
//
//	@Summary		Get checkout session status
//	@Tags			subscriptions
//	@Produce		json
//	@Param			id	path		string	true	"Checkout session ID"
//	@Success		200	{object}	payments.CheckoutStatus
//	@Failure		502	{object}	errors.Error	"Payment platform error"
//	@Router			/checkout/sessions/{id} [get]
func (a *API) checkoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	status, err := a.service.CheckoutSessionStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, status)
}

// createPortalSessionHandler godoc
//
//	@Summary		Create a customer portal session
//	@Tags			subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PortalRequest	true	"Customer"
//	@Success		200		{object}	URLResponse
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		502		{object}	errors.Error	"Payment platform error"
//	@Router			/portal [post]
func (a *API) createPortalSessionHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[PortalRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	url, err := a.service.CreatePortalSession(r.Context(), req.CustomerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, &URLResponse{URL: url})
}
