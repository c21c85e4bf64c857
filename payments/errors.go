package payments

import (
	"fmt"
	"strings"

	"github.com/vocdoni/payments-backend/stripe"
	"go.vocdoni.io/dvote/log"
)

// ErrorCode classifies every failure the orchestration layer reports.
type ErrorCode string

const (
	CodeValidation      ErrorCode = "validation"
	CodeConflict        ErrorCode = "conflict"
	CodePaymentDeclined ErrorCode = "payment_declined"
	CodeSignature       ErrorCode = "signature"
	CodeGateway         ErrorCode = "gateway"
	CodeHandler         ErrorCode = "handler_failed"
)

// Error is returned by every operation of the package. Op and Subject name
// the operation and the platform object it was working on, so a log line can
// be matched against the platform request logs.
type Error struct {
	Code    ErrorCode
	Op      string
	Subject string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("payments")
	if e.Op != "" {
		sb.WriteString(" " + e.Op)
	}
	if e.Subject != "" {
		sb.WriteString(" (" + e.Subject + ")")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so callers can test against
// the sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation      = &Error{Code: CodeValidation, Message: "invalid input"}
	ErrConflict        = &Error{Code: CodeConflict, Message: "already exists"}
	ErrPaymentDeclined = &Error{Code: CodePaymentDeclined, Message: "payment declined"}
	ErrSignature       = &Error{Code: CodeSignature, Message: "webhook signature verification failed"}
	ErrGateway         = &Error{Code: CodeGateway, Message: "payment platform call failed"}
	ErrHandler         = &Error{Code: CodeHandler, Message: "webhook handler failed"}
)

func validationError(op, subject, format string, args ...any) error {
	return &Error{Code: CodeValidation, Op: op, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// gatewayError wraps a platform failure, logs it with the operation context
// and counts it.
func gatewayError(op, subject string, err error) error {
	gatewayErrors.WithLabelValues(op).Inc()
	kv := []any{"operation", op, "subject", subject}
	if apiErr, ok := stripe.APIError(err); ok && apiErr.RequestID != "" {
		kv = append(kv, "requestId", apiErr.RequestID)
	}
	log.Warnw(fmt.Sprintf("payment platform call failed: %v", err), kv...)
	return &Error{Code: CodeGateway, Op: op, Subject: subject, Message: ErrGateway.Message, Err: err}
}
