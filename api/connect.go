package api

import (
	"net/http"

	"github.com/vocdoni/payments-backend/errors"
	"github.com/vocdoni/payments-backend/validator"
)

// createExpressAccountHandler godoc
//
//	@Summary		Create an express connected account
//	@Tags			connect
//	@Produce		json
//	@Success		200	{object}	stripe.Account
//	@Failure		502	{object}	errors.Error	"Payment platform error"
//	@Router			/connect/express [post]
func (a *API) createExpressAccountHandler(w http.ResponseWriter, r *http.Request) {
	account, err := a.service.CreateExpressAccount(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, account)
}

// createCustomAccountHandler godoc
//
//	@Summary		Create a custom connected account from an account token
//	@Tags			connect
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CustomAccountRequest	true	"Account token"
//	@Success		200		{object}	stripe.Account
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		502		{object}	errors.Error	"Payment platform error"
//	@Router			/connect/custom [post]
func (a *API) createCustomAccountHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[CustomAccountRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	account, err := a.service.CreateCustomAccountFromToken(r.Context(), req.AccountToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, account)
}

// accountStatusHandler godoc
//
//	@Summary		Get the readiness of a connected account
//	@Description	Never fails on platform errors: an account that could not be looked up is reported not
//	@Description	ready with known set to false.
//	@Tags			connect
//	@Produce		json
//	@Param			id	path		string	true	"Account ID"
//	@Success		200	{object}	AccountStatusResponse
//	@Router			/connect/{id}/status [get]
func (a *API) accountStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	result := a.service.GetAccountStatus(r.Context(), id)
	httpWriteJSON(w, &AccountStatusResponse{AccountStatus: result.Status, Known: result.Known})
}

// onboardingLinkHandler godoc
//
//	@Summary		Create an onboarding link for a connected account
//	@Tags			connect
//	@Produce		json
//	@Param			id	path		string	true	"Account ID"
//	@Success		200	{object}	URLResponse
//	@Failure		502	{object}	errors.Error	"Payment platform error"
//	@Router			/connect/{id}/link [post]
func (a *API) onboardingLinkHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	url, err := a.service.CreateOnboardingLink(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, &URLResponse{URL: url})
}

// transferHandler godoc
//
//	@Summary		Transfer funds to a connected account
//	@Description	When the platform refuses the transfer a synthetic placeholder is returned with synthetic
//	@Description	set to true. No money moved in that case.
//	@Tags			connect
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Account ID"
//	@Param			request	body		TransferRequest	true	"Amount in cents"
//	@Success		200		{object}	TransferResponse
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Router			/connect/{id}/transfer [post]
func (a *API) transferHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	req, ok := validator.Model[TransferRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	amount, err := minorAmount(req.Amount)
	if err != nil {
		errors.ErrInvalidAmount.WithErr(err).Write(w)
		return
	}
	result, err := a.service.TransferToAccount(r.Context(), id, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	transfer := result.Transfer
	resp := &TransferResponse{
		ID:        transfer.ID,
		Amount:    transfer.Amount,
		Currency:  string(transfer.Currency),
		Created:   transfer.Created,
		Synthetic: result.Synthetic,
	}
	if transfer.Destination != nil {
		resp.Destination = transfer.Destination.ID
	}
	httpWriteJSON(w, resp)
}
