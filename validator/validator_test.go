package validator

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestValidateCurrency(t *testing.T) {
	c := qt.New(t)
	type request struct {
		Currency string `json:"currency" validate:"omitempty,currency"`
	}
	v := New()

	for _, valid := range []string{"eur", "EUR", "usd", ""} {
		c.Assert(v.Validate(&request{Currency: valid}), qt.IsNil, qt.Commentf("currency %q", valid))
	}
	for _, invalid := range []string{"euro", "e", "€", "12a"} {
		c.Assert(v.Validate(&request{Currency: invalid}), qt.IsNotNil, qt.Commentf("currency %q", invalid))
	}
}

func TestValidateObjectID(t *testing.T) {
	c := qt.New(t)
	type request struct {
		ID string `json:"id" validate:"required,objectid"`
	}
	v := New()

	for _, valid := range []string{"cus_NffrFeUfNV2Hib", "pm_card_visa", "acct_1032D82eZvKYlo2C", "price_1MoBy5"} {
		c.Assert(v.Validate(&request{ID: valid}), qt.IsNil, qt.Commentf("id %q", valid))
	}
	for _, invalid := range []string{"", "cus", "cus_", "CUS_123", "cus 123", "_123"} {
		c.Assert(v.Validate(&request{ID: invalid}), qt.IsNotNil, qt.Commentf("id %q", invalid))
	}
}

func TestValidationErrorsUseJSONNames(t *testing.T) {
	c := qt.New(t)
	type request struct {
		CustomerID string `json:"customerId" validate:"required"`
		Amount     int64  `json:"amount" validate:"gt=0"`
	}
	err := New().Validate(&request{})
	c.Assert(err, qt.IsNotNil)
	verrs := toValidationErrors(err)
	c.Assert(verrs, qt.DeepEquals, ValidationErrors{
		{Field: "customerId", Message: "This field is required"},
		{Field: "amount", Message: "Must be greater than 0"},
	})
	c.Assert(verrs.Error(), qt.Equals, "customerId: This field is required, amount: Must be greater than 0")
}
