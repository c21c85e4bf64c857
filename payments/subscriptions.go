package payments

import (
	"context"
	"time"

	stripeapi "github.com/stripe/stripe-go/v81"
	"go.vocdoni.io/dvote/log"
)

// Subscriptions creates and cancels recurring billing relationships.
type Subscriptions struct {
	base
}

// CreateSubscription subscribes the customer to a recurring price. A start
// date strictly in the future becomes the trial end; any other start date is
// ignored.
func (m *Subscriptions) CreateSubscription(ctx context.Context, customerID, priceID string, startDate *time.Time,
) (*stripeapi.Subscription, error) {
	const op = "createSubscription"
	if customerID == "" || priceID == "" {
		return nil, validationError(op, customerID, "customer id and price id are required")
	}
	params := &stripeapi.SubscriptionParams{
		Customer: stripeapi.String(customerID),
		Items: []*stripeapi.SubscriptionItemsParams{
			{Price: stripeapi.String(priceID)},
		},
	}
	if startDate != nil && startDate.After(m.now()) {
		params.TrialEnd = stripeapi.Int64(startDate.Unix())
	}

	ctx, cancel := m.call(ctx)
	defer cancel()
	sub, err := m.gw.NewSubscription(ctx, params)
	if err != nil {
		return nil, gatewayError(op, customerID, err)
	}
	log.Infow("subscription created", "customerId", customerID, "subscriptionId", sub.ID, "status", sub.Status)
	return sub, nil
}

// CancelAtPeriodEnd schedules the cancellation at the end of the current
// billing period. Access is not cut mid-cycle.
func (m *Subscriptions) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*stripeapi.Subscription, error) {
	const op = "cancelSubscription"
	if subscriptionID == "" {
		return nil, validationError(op, "", "subscription id is required")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()
	sub, err := m.gw.UpdateSubscription(ctx, subscriptionID, &stripeapi.SubscriptionParams{
		CancelAtPeriodEnd: stripeapi.Bool(true),
	})
	if err != nil {
		return nil, gatewayError(op, subscriptionID, err)
	}
	log.Infow("subscription set to cancel at period end", "subscriptionId", sub.ID)
	return sub, nil
}
