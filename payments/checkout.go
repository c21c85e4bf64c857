package payments

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v81"
	"go.vocdoni.io/dvote/log"
)

// Checkout creates prices and hosted checkout and portal sessions.
type Checkout struct {
	base
}

// CreatePrice creates a monthly recurring price, and its product, for a plan.
// unitAmount is in cents.
func (m *Checkout) CreatePrice(ctx context.Context, planName string, unitAmount int64) (*stripeapi.Price, error) {
	const op = "createPrice"
	if planName == "" {
		return nil, validationError(op, "", "plan name is required")
	}
	if unitAmount <= 0 {
		return nil, validationError(op, planName, "plan price must be positive")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()
	price, err := m.gw.NewPrice(ctx, &stripeapi.PriceParams{
		Currency:   stripeapi.String(m.conf.Currency),
		UnitAmount: stripeapi.Int64(unitAmount),
		Recurring: &stripeapi.PriceRecurringParams{
			Interval: stripeapi.String(string(stripeapi.PriceRecurringIntervalMonth)),
		},
		ProductData: &stripeapi.PriceProductDataParams{
			Name: stripeapi.String(planName),
		},
	})
	if err != nil {
		return nil, gatewayError(op, planName, err)
	}
	log.Infow("price created", "priceId", price.ID, "plan", planName, "unitAmount", unitAmount)
	return price, nil
}

// CheckoutRequest describes a hosted checkout session.
type CheckoutRequest struct {
	PriceID  string
	Quantity int64
	// Mode is "subscription" or "payment".
	Mode       string
	CustomerID string
}

// CreateCheckoutSession creates a hosted checkout session for one price.
func (m *Checkout) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*stripeapi.CheckoutSession, error) {
	const op = "createCheckoutSession"
	if req == nil || req.PriceID == "" {
		return nil, validationError(op, "", "price id is required")
	}
	mode := req.Mode
	if mode == "" {
		mode = string(stripeapi.CheckoutSessionModeSubscription)
	}
	if mode != string(stripeapi.CheckoutSessionModeSubscription) && mode != string(stripeapi.CheckoutSessionModePayment) {
		return nil, validationError(op, req.PriceID, "unsupported checkout mode %q", mode)
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, validationError(op, req.PriceID, "quantity must be positive")
	}

	params := &stripeapi.CheckoutSessionParams{
		Mode: stripeapi.String(mode),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Price:    stripeapi.String(req.PriceID),
				Quantity: stripeapi.Int64(quantity),
			},
		},
		SuccessURL: stripeapi.String(m.conf.FrontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripeapi.String(m.conf.FrontendURL + "/checkout/cancel"),
	}
	if req.CustomerID != "" {
		params.Customer = stripeapi.String(req.CustomerID)
	}

	ctx, cancel := m.call(ctx)
	defer cancel()
	session, err := m.gw.NewCheckoutSession(ctx, params)
	if err != nil {
		return nil, gatewayError(op, req.PriceID, err)
	}
	log.Infow("checkout session created", "sessionId", session.ID, "mode", mode, "priceId", req.PriceID)
	return session, nil
}

// CheckoutStatus is the state of a checkout session.
type CheckoutStatus struct {
	SessionID     string `json:"sessionId"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// CheckoutSessionStatus retrieves the state of a checkout session.
func (m *Checkout) CheckoutSessionStatus(ctx context.Context, sessionID string) (*CheckoutStatus, error) {
	const op = "getCheckoutSession"
	if sessionID == "" {
		return nil, validationError(op, "", "session id is required")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()
	session, err := m.gw.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, gatewayError(op, sessionID, err)
	}
	status := &CheckoutStatus{
		SessionID:     session.ID,
		Status:        string(session.Status),
		PaymentStatus: string(session.PaymentStatus),
	}
	if session.CustomerDetails != nil {
		status.CustomerEmail = session.CustomerDetails.Email
	}
	return status, nil
}

// CreatePortalSession returns the URL of a customer portal session.
func (m *Checkout) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	const op = "createPortalSession"
	if customerID == "" {
		return "", validationError(op, "", "customer id is required")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()
	session, err := m.gw.NewPortalSession(ctx, &stripeapi.BillingPortalSessionParams{
		Customer:  stripeapi.String(customerID),
		ReturnURL: stripeapi.String(m.conf.FrontendURL + "/account"),
	})
	if err != nil {
		return "", gatewayError(op, customerID, err)
	}
	return session.URL, nil
}
