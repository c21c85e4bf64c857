// Package errors provides the HTTP error envelope of the API and the
// catalogue of error codes it can answer with.
//
//nolint:lll
package errors

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the caller's fault and map to a 4xx
// HTTP status. Codes 50001-59999 are the server's or the payment platform's
// fault and map to a 5xx status.
//
// NEVER change any of the current error codes, only append new ones. A gap in
// the numbering is a retired code and must not be reused.
// There's no correlation between Code and HTTP Status beyond the first digit.
var (
	// Authentication errors (401)
	ErrUnauthorized = Error{Code: 40001, HTTPstatus: http.StatusUnauthorized, Err: fmt.Errorf("authentication required"), LogLevel: "info"}

	// Validation errors (400)
	ErrMalformedBody     = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid JSON request body")}
	ErrMalformedURLParam = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid URL parameter")}
	ErrValidation        = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid request")}
	ErrInvalidSignature  = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid webhook signature"), LogLevel: "warn"}
	ErrInvalidAmount     = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid amount")}

	// Payment errors (402)
	ErrPaymentDeclined = Error{Code: 40201, HTTPstatus: http.StatusPaymentRequired, Err: fmt.Errorf("payment declined or requires authentication"), LogLevel: "info"}

	// Permission errors (403)
	ErrForbidden = Error{Code: 40301, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("operator role required"), LogLevel: "info"}

	// Conflict errors (409)
	ErrDuplicateConflict = Error{Code: 40901, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("resource already exists")}

	// Server errors (500) - These should be used sparingly and only for true internal errors
	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: failed to process response"), LogLevel: "error"}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: operation failed"), LogLevel: "error"}
	ErrInternalStorageError       = Error{Code: 50003, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: storage operation failed"), LogLevel: "error"}
	ErrWebhookHandler             = Error{Code: 50008, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: webhook handler failed"), LogLevel: "error"}

	// Upstream errors (502, 503)
	ErrGateway            = Error{Code: 50201, HTTPstatus: http.StatusBadGateway, Err: fmt.Errorf("payment platform request failed"), LogLevel: "error"}
	ErrServiceUnavailable = Error{Code: 50301, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("service not available"), LogLevel: "warn"}
)
