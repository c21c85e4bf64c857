package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// currencyRegex matches a three letter ISO 4217 currency code.
	currencyRegex = regexp.MustCompile(`^[A-Za-z]{3}$`)

	// objectIDRegex matches a payment platform object id such as cus_NffrFeUfNV2Hib.
	objectIDRegex = regexp.MustCompile(`^[a-z]+(_[a-z]+)*_[A-Za-z0-9]+$`)
)

// Validator is a wrapper around the go-playground/validator package.
type Validator struct {
	validator *validator.Validate
}

// New creates a new Validator instance.
func New() *Validator {
	v := validator.New()

	// Report fields by their JSON name, the way clients send them
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("currency", validateCurrency)
	_ = v.RegisterValidation("objectid", validateObjectID)

	return &Validator{
		validator: v,
	}
}

// Validate validates a struct using the validator package.
func (v *Validator) Validate(s any) error {
	return v.validator.Struct(s)
}

// validateCurrency validates a currency code. Empty is valid, use required.
func validateCurrency(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	return currencyRegex.MatchString(fl.Field().String())
}

// validateObjectID validates a platform object id. Empty is valid, use required.
func validateObjectID(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	return objectIDRegex.MatchString(fl.Field().String())
}
