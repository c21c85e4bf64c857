package validator

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vocdoni/payments-backend/errors"
	"go.vocdoni.io/dvote/log"
)

// MaxBodyBytes bounds the JSON bodies read by the validator.
const MaxBodyBytes = 1 << 20

// keys for storing models in context
type (
	ModelKey          struct{}
	ValidatedModelKey struct{}
)

// ValidationError represents an individual validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a slice of ValidationError.
type ValidationErrors []ValidationError

// Error returns a string representation of the validation errors.
func (ve ValidationErrors) Error() string {
	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return sb.String()
}

// toValidationErrors flattens the validator errors into ValidationErrors.
func toValidationErrors(err error) ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "", Message: err.Error()}}
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		out = append(out, ValidationError{
			Field:   jsonFieldName(fieldErr),
			Message: getErrorMessage(fieldErr),
		})
	}
	return out
}

// AddModelMiddleware adds the provided model to the request context.
func (*Validator) AddModelMiddleware(model any) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ModelKey{}, model)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InputValidator decodes the JSON request body into a new instance of the
// model stored in the context and validates it. On success the instance is
// added to the context for downstream handlers. An empty body decodes to the
// zero model, so routes whose body is optional still go through validation.
func (v *Validator) InputValidator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead ||
			r.Method == http.MethodOptions || r.Method == http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		model, ok := r.Context().Value(ModelKey{}).(any)
		if !ok || model == nil {
			next.ServeHTTP(w, r)
			return
		}
		instance := reflect.New(reflect.TypeOf(model)).Interface()

		body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
		if err != nil {
			errors.ErrMalformedBody.Write(w)
			return
		}
		// Reset the body for downstream use.
		r.Body = io.NopCloser(bytes.NewBuffer(body))

		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, instance); err != nil {
				errors.ErrMalformedBody.WithErr(err).Write(w)
				return
			}
		}

		if err := v.validator.Struct(instance); err != nil {
			validationErrors := toValidationErrors(err)
			log.Debugw("validation errors", "errors", validationErrors.Error())
			errors.ErrValidation.WithErr(validationErrors).WithData(validationErrors).Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), ValidatedModelKey{}, instance)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetValidatedModel retrieves the validated model from the context.
func GetValidatedModel(ctx context.Context) (any, bool) {
	model := ctx.Value(ValidatedModelKey{})
	return model, model != nil
}

// Model retrieves the validated model from the context as a *T.
func Model[T any](ctx context.Context) (*T, bool) {
	model, ok := GetValidatedModel(ctx)
	if !ok {
		return nil, false
	}
	typed, ok := model.(*T)
	return typed, ok
}

func jsonFieldName(err validator.FieldError) string {
	if field := err.Field(); field != "" {
		return field
	}
	return err.StructField()
}

// getErrorMessage returns a human-readable error message for a validation error.
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "gt":
		return fmt.Sprintf("Must be greater than %s", err.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", err.Param())
	case "currency":
		return "Invalid currency code (e.g. eur)"
	case "objectid":
		return "Invalid payment platform id"
	default:
		return fmt.Sprintf("Invalid value: %s", err.Tag())
	}
}
