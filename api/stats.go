package api

import (
	"net/http"

	"github.com/spf13/cast"
	"github.com/vocdoni/payments-backend/errors"
	"github.com/vocdoni/payments-backend/payments"
	"github.com/vocdoni/payments-backend/validator"
)

const (
	defaultFallbacksLimit = 50
	maxFallbacksLimit     = 500
)

// customerStatsHandler godoc
//
//	@Summary		Count customers and those created in the last 30 days
//	@Tags			stats
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	payments.CustomerStats
//	@Failure		401	{object}	errors.Error	"Unauthorized"
//	@Failure		502	{object}	errors.Error	"Payment platform error"
//	@Router			/stats/customers [get]
func (a *API) customerStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := a.service.CustomerStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, stats)
}

// subscriberStatsHandler godoc
//
//	@Summary		Count active subscriptions
//	@Tags			stats
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	payments.SubscriberStats
//	@Failure		401	{object}	errors.Error	"Unauthorized"
//	@Failure		502	{object}	errors.Error	"Payment platform error"
//	@Router			/stats/subscribers [get]
func (a *API) subscriberStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := a.service.SubscriberStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, stats)
}

// paymentStatsHandler godoc
//
//	@Summary		Aggregate the latest payment attempts
//	@Tags			stats
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	PaymentStatsResponse
//	@Failure		401	{object}	errors.Error	"Unauthorized"
//	@Failure		502	{object}	errors.Error	"Payment platform error"
//	@Router			/stats/payments [get]
func (a *API) paymentStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := a.service.PaymentStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := &PaymentStatsResponse{
		Total:        stats.Total,
		SuccessRate:  stats.SuccessRate,
		RefundRate:   stats.RefundRate,
		AverageValue: money(stats.AverageValue),
		ByMethod:     make([]MethodStatsResponse, 0, len(stats.ByMethod)),
	}
	for _, m := range stats.ByMethod {
		resp.ByMethod = append(resp.ByMethod, MethodStatsResponse{
			Method: m.Method,
			Count:  m.Count,
			Value:  money(m.Value),
		})
	}
	httpWriteJSON(w, resp)
}

// totalRevenueHandler godoc
//
//	@Summary		Sum the paid, non-refunded charges of a time window
//	@Tags			stats
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		RevenueRequest	true	"Window in unix seconds"
//	@Success		200		{object}	RevenueResponse
//	@Failure		400		{object}	errors.Error	"Invalid input data"
//	@Failure		401		{object}	errors.Error	"Unauthorized"
//	@Failure		502		{object}	errors.Error	"Payment platform error"
//	@Router			/stats/revenue [post]
func (a *API) totalRevenueHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.Model[RevenueRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	start, err := unixSeconds(req.StartDate)
	if err != nil {
		errors.ErrValidation.Withf("startDate: %v", err).Write(w)
		return
	}
	end, err := unixSeconds(req.EndDate)
	if err != nil {
		errors.ErrValidation.Withf("endDate: %v", err).Write(w)
		return
	}
	total, err := a.service.TotalRevenue(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpWriteJSON(w, &RevenueResponse{TotalRevenueEuro: money(total)})
}

// fallbacksHandler godoc
//
//	@Summary		List recorded soft failures
//	@Description	Synthetic transfers and unknown account statuses, newest first.
//	@Tags			stats
//	@Produce		json
//	@Security		BearerAuth
//	@Param			kind	query		string	false	"synthetic_transfer or unknown_account_status"
//	@Param			limit	query		int		false	"Maximum entries (default 50, max 500)"
//	@Success		200		{object}	FallbacksResponse
//	@Failure		401		{object}	errors.Error	"Unauthorized"
//	@Failure		503		{object}	errors.Error	"No audit store configured"
//	@Router			/ops/fallbacks [get]
func (a *API) fallbacksHandler(w http.ResponseWriter, r *http.Request) {
	if a.audit == nil {
		errors.ErrServiceUnavailable.With("audit store not configured").Write(w)
		return
	}
	kind := payments.FallbackKind(r.URL.Query().Get("kind"))
	switch kind {
	case "", payments.FallbackSyntheticTransfer, payments.FallbackUnknownAccountStatus:
	default:
		errors.ErrMalformedURLParam.Withf("unknown fallback kind %q", kind).Write(w)
		return
	}
	limit := int64(defaultFallbacksLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := cast.ToInt64E(s)
		if err != nil || n <= 0 {
			errors.ErrMalformedURLParam.Withf("invalid limit %q", s).Write(w)
			return
		}
		limit = min(n, maxFallbacksLimit)
	}
	fallbacks, err := a.audit.Fallbacks(r.Context(), kind, limit)
	if err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	if fallbacks == nil {
		fallbacks = []*payments.Fallback{}
	}
	httpWriteJSON(w, &FallbacksResponse{Fallbacks: fallbacks})
}
