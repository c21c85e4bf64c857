package payments

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v81"
)

func TestCreatePrice(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	ctx := context.Background()

	price, err := svc.CreatePrice(ctx, "Premium", 1999)
	c.Assert(err, qt.IsNil)
	c.Assert(price.UnitAmount, qt.Equals, int64(1999))
	c.Assert(price.Recurring.Interval, qt.Equals, stripeapi.PriceRecurringIntervalMonth)
	c.Assert(price.Product.Name, qt.Equals, "Premium")

	params := gw.Calls("NewPrice")[0].Params.(*stripeapi.PriceParams)
	c.Assert(*params.Currency, qt.Equals, "eur")

	_, err = svc.CreatePrice(ctx, "", 100)
	c.Assert(errors.Is(err, ErrValidation), qt.IsTrue)
	_, err = svc.CreatePrice(ctx, "Free", 0)
	c.Assert(errors.Is(err, ErrValidation), qt.IsTrue)
}

func TestCheckoutSession(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, &Config{FrontendURL: "https://shop.example.org"})
	ctx := context.Background()

	session, err := svc.CreateCheckoutSession(ctx, &CheckoutRequest{PriceID: "price_1", CustomerID: "cus_1"})
	c.Assert(err, qt.IsNil)
	c.Assert(session.URL, qt.Not(qt.Equals), "")

	params := gw.Calls("NewCheckoutSession")[0].Params.(*stripeapi.CheckoutSessionParams)
	c.Assert(*params.Mode, qt.Equals, "subscription")
	c.Assert(*params.LineItems[0].Quantity, qt.Equals, int64(1))
	c.Assert(*params.Customer, qt.Equals, "cus_1")
	c.Assert(*params.SuccessURL, qt.Equals, "https://shop.example.org/checkout/success?session_id={CHECKOUT_SESSION_ID}")
	c.Assert(*params.CancelURL, qt.Equals, "https://shop.example.org/checkout/cancel")

	status, err := svc.CheckoutSessionStatus(ctx, session.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(status.Status, qt.Equals, "open")
	c.Assert(status.PaymentStatus, qt.Equals, "unpaid")

	_, err = svc.CreateCheckoutSession(ctx, &CheckoutRequest{PriceID: "price_1", Mode: "setup"})
	c.Assert(errors.Is(err, ErrValidation), qt.IsTrue)
	_, err = svc.CreateCheckoutSession(ctx, &CheckoutRequest{})
	c.Assert(errors.Is(err, ErrValidation), qt.IsTrue)
	_, err = svc.CheckoutSessionStatus(ctx, "cs_missing")
	c.Assert(errors.Is(err, ErrGateway), qt.IsTrue)
}

func TestPortalSession(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	url, err := svc.CreatePortalSession(context.Background(), "cus_1")
	c.Assert(err, qt.IsNil)
	c.Assert(url, qt.Not(qt.Equals), "")
	params := gw.Calls("NewPortalSession")[0].Params.(*stripeapi.BillingPortalSessionParams)
	c.Assert(*params.ReturnURL, qt.Equals, DefaultFrontendURL+"/account")

	_, err = svc.CreatePortalSession(context.Background(), "")
	c.Assert(errors.Is(err, ErrValidation), qt.IsTrue)
}
