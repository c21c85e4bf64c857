package stripe

import (
	"errors"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v81"
)

// StripeError represents a failed call to the platform API. The platform's own
// *stripeapi.Error, when there is one, stays reachable through Unwrap.
type StripeError struct {
	Code    string
	Message string
	Err     error
}

func (e *StripeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stripe error [%s]: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("stripe error [%s]: %s", e.Code, e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.Err
}

// Error codes used by the adapter
const (
	CodeAPICallFailed        = "api_call_failed"
	CodeInvalidConfiguration = "invalid_configuration"
)

// ErrInvalidConfiguration is returned by NewClient on a bad Config.
var ErrInvalidConfiguration = &StripeError{Code: CodeInvalidConfiguration, Message: "invalid stripe configuration"}

// NewStripeError creates a new StripeError with the given code, message, and underlying error
func NewStripeError(code, message string, err error) *StripeError {
	return &StripeError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// APIError extracts the platform error from err, if any.
func APIError(err error) (*stripeapi.Error, bool) {
	var apiErr *stripeapi.Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsDeclined reports whether the platform refused the charge because the card
// was declined or needs the cardholder to authenticate.
func IsDeclined(err error) bool {
	apiErr, ok := APIError(err)
	if !ok {
		return false
	}
	for _, code := range []string{string(apiErr.Code), string(apiErr.DeclineCode)} {
		switch code {
		case string(stripeapi.ErrorCodeCardDeclined), string(stripeapi.ErrorCodeAuthenticationRequired):
			return true
		}
	}
	return false
}
