package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/vocdoni/payments-backend/errors"
	"github.com/vocdoni/payments-backend/payments"
	"go.vocdoni.io/dvote/log"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		errors.ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// writeServiceError translates an error of the payments package to its HTTP
// answer. Gateway details are already logged by the payments package and
// never reach the client.
func writeServiceError(w http.ResponseWriter, err error) {
	var perr *payments.Error
	if !stderrors.As(err, &perr) {
		errors.ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	switch perr.Code {
	case payments.CodeValidation:
		errors.ErrValidation.With(perr.Message).Write(w)
	case payments.CodeConflict:
		errors.ErrDuplicateConflict.With(perr.Message).Write(w)
	case payments.CodePaymentDeclined:
		errors.ErrPaymentDeclined.Write(w)
	case payments.CodeSignature:
		errors.ErrInvalidSignature.Write(w)
	case payments.CodeHandler:
		errors.ErrWebhookHandler.Withf("%s", perr.Op).Write(w)
	case payments.CodeGateway:
		errors.ErrGateway.With(perr.Op).Write(w)
	default:
		errors.ErrGenericInternalServerError.WithErr(err).Write(w)
	}
}

// urlID returns the {id} URL parameter, writing the error answer when it is
// missing.
func urlID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		errors.ErrMalformedURLParam.With("id is required").Write(w)
		return "", false
	}
	return id, true
}

// minorAmount reads an amount in cents sent either as a JSON number or as a
// numeric string. Fractions of a cent and non-positive amounts are refused.
func minorAmount(v any) (int64, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return 0, fmt.Errorf("amount must be a number")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("amount must be a number")
	}
	if !d.IsInteger() || !d.IsPositive() {
		return 0, fmt.Errorf("amount must be a positive whole number of cents")
	}
	if d.GreaterThan(payments.MaxMinor) {
		return 0, fmt.Errorf("amount is too large")
	}
	return d.IntPart(), nil
}

// majorAmount reads an amount in major units (e.g. 12.50) and converts it
// to cents.
func majorAmount(v any) (int64, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return 0, fmt.Errorf("price must be a number")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("price must be a number")
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("price must be positive")
	}
	return payments.ToMinor(d)
}

// optionalTime reads a date sent as unix seconds, as a numeric string or as
// a date string. Nil and empty values are no date.
func optionalTime(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		if secs, err := cast.ToInt64E(strings.TrimSpace(s)); err == nil {
			t := time.Unix(secs, 0)
			return &t, nil
		}
		t, err := cast.ToTimeE(s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", s)
		}
		return &t, nil
	}
	secs, err := cast.ToInt64E(v)
	if err != nil {
		return nil, fmt.Errorf("invalid date")
	}
	t := time.Unix(secs, 0)
	return &t, nil
}

// unixSeconds reads a required timestamp in unix seconds.
func unixSeconds(v any) (int64, error) {
	t, err := optionalTime(v)
	if err != nil {
		return 0, err
	}
	if t == nil {
		return 0, fmt.Errorf("date is required")
	}
	return t.Unix(), nil
}

// money renders an exact decimal as a JSON number.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
