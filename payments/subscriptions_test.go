package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v81"
)

func TestCreateSubscriptionTrialEnd(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	future := testNow.Add(72*time.Hour + 900*time.Millisecond)
	past := testNow.Add(-time.Hour)
	now := testNow

	tests := []struct {
		name      string
		startDate *time.Time
		trialEnd  *int64
	}{
		{name: "no start date"},
		{name: "start date in the past", startDate: &past},
		{name: "start date equal to now", startDate: &now},
		{name: "start date in the future", startDate: &future, trialEnd: stripeapi.Int64(testNow.Add(72 * time.Hour).Unix())},
	}
	for _, tc := range tests {
		c.Run(tc.name, func(c *qt.C) {
			svc, gw := newTestService(c, nil)
			sub, err := svc.CreateSubscription(ctx, "cus_1", "price_1", tc.startDate)
			c.Assert(err, qt.IsNil)
			c.Assert(sub.ID, qt.Not(qt.Equals), "")

			calls := gw.Calls("NewSubscription")
			c.Assert(calls, qt.HasLen, 1)
			params := calls[0].Params.(*stripeapi.SubscriptionParams)
			c.Assert(*params.Customer, qt.Equals, "cus_1")
			c.Assert(*params.Items[0].Price, qt.Equals, "price_1")
			if tc.trialEnd == nil {
				c.Assert(params.TrialEnd, qt.IsNil)
				return
			}
			c.Assert(params.TrialEnd, qt.Not(qt.IsNil))
			c.Assert(*params.TrialEnd, qt.Equals, *tc.trialEnd)
		})
	}
}

func TestCancelAtPeriodEnd(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	ctx := context.Background()

	sub, err := svc.CreateSubscription(ctx, "cus_1", "price_1", nil)
	c.Assert(err, qt.IsNil)

	canceled, err := svc.CancelAtPeriodEnd(ctx, sub.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(canceled.CancelAtPeriodEnd, qt.IsTrue)
	c.Assert(canceled.Status, qt.Equals, stripeapi.SubscriptionStatusActive)
	c.Assert(gw.Calls("UpdateSubscription"), qt.HasLen, 1)

	_, err = svc.CancelAtPeriodEnd(ctx, "sub_unknown")
	c.Assert(errors.Is(err, ErrGateway), qt.IsTrue)
}
