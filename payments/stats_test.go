package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/payments-backend/internal/testutil"
)

func TestTotalRevenue(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	ctx := context.Background()

	start, end := int64(1_700_000_000), int64(1_700_086_400)
	var want int64
	// 250 charges inside the window force three pages
	for i := 0; i < 250; i++ {
		amount := int64(1000 + i)
		ch := &stripeapi.Charge{ID: fmt.Sprintf("ch_%d", i), Amount: amount, Paid: true, Created: start + int64(i)}
		switch {
		case i%10 == 0:
			ch.Refunded = true
		case i%7 == 0:
			ch.Paid = false
		default:
			want += amount
		}
		gw.Charges = append(gw.Charges, ch)
	}
	// the window ends are inclusive
	gw.Charges = append(gw.Charges,
		&stripeapi.Charge{ID: "ch_end", Amount: 99, Paid: true, Created: end},
		&stripeapi.Charge{ID: "ch_before", Amount: 5000, Paid: true, Created: start - 1},
		&stripeapi.Charge{ID: "ch_after", Amount: 5000, Paid: true, Created: end + 1},
	)
	want += 99

	total, err := svc.TotalRevenue(ctx, start, end)
	c.Assert(err, qt.IsNil)
	c.Assert(total.Equal(decimal.NewFromInt(want).Div(decimal.NewFromInt(100))), qt.IsTrue,
		qt.Commentf("got %s, want %d cents", total, want))
	c.Assert(total.Mul(Dec100).IsInteger(), qt.IsTrue)

	// pages were chained with the last id of the previous page
	calls := gw.Calls("ListCharges")
	c.Assert(calls, qt.HasLen, 3)
	c.Assert(calls[0].Params.(*stripeapi.ChargeListParams).StartingAfter, qt.IsNil)
	c.Assert(*calls[1].Params.(*stripeapi.ChargeListParams).StartingAfter, qt.Equals, "ch_99")
	c.Assert(*calls[2].Params.(*stripeapi.ChargeListParams).StartingAfter, qt.Equals, "ch_199")
	for _, call := range calls {
		params := call.Params.(*stripeapi.ChargeListParams)
		c.Assert(*params.Limit, qt.Equals, int64(100))
		c.Assert(params.CreatedRange.GreaterThanOrEqual, qt.Equals, start)
		c.Assert(params.CreatedRange.LesserThanOrEqual, qt.Equals, end)
	}
}

func TestTotalRevenueExactCents(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	for i, amount := range []int64{1, 2, 10, 333} {
		gw.Charges = append(gw.Charges, &stripeapi.Charge{
			ID: fmt.Sprintf("ch_%d", i), Amount: amount, Paid: true, Created: 10,
		})
	}
	total, err := svc.TotalRevenue(context.Background(), 0, 100)
	c.Assert(err, qt.IsNil)
	c.Assert(total.String(), qt.Equals, "3.46")
}

func TestTotalRevenueErrors(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	_, err := svc.TotalRevenue(context.Background(), 200, 100)
	c.Assert(errors.Is(err, ErrValidation), qt.IsTrue)

	gw.FailOn("ListCharges", testutil.PlatformError(http.StatusTooManyRequests, stripeapi.ErrorCodeRateLimit, "slow down"))
	_, err = svc.TotalRevenue(context.Background(), 0, 100)
	c.Assert(errors.Is(err, ErrGateway), qt.IsTrue)
}

func TestCustomerStats(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	cutoff := testNow.Add(-30 * 24 * time.Hour).Unix()
	for i := 0; i < 130; i++ {
		created := cutoff - 1
		if i%4 == 0 {
			created = cutoff + int64(i)
		}
		gw.Customers = append(gw.Customers, &stripeapi.Customer{ID: fmt.Sprintf("cus_%d", i), Created: created})
	}
	gw.Customers = append(gw.Customers, &stripeapi.Customer{ID: "cus_edge", Created: cutoff})

	stats, err := svc.CustomerStats(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(stats.Total, qt.Equals, 131)
	c.Assert(stats.New, qt.Equals, 33+1)
	c.Assert(gw.Calls("ListCustomers"), qt.HasLen, 2)
}

func TestSubscriberStats(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	for i := 0; i < 105; i++ {
		status := stripeapi.SubscriptionStatusActive
		if i%3 == 0 {
			status = stripeapi.SubscriptionStatusCanceled
		}
		gw.Subscriptions = append(gw.Subscriptions, &stripeapi.Subscription{ID: fmt.Sprintf("sub_%d", i), Status: status})
	}
	stats, err := svc.SubscriberStats(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(stats.ActiveCount, qt.Equals, 70)
	for _, call := range gw.Calls("ListSubscriptions") {
		c.Assert(*call.Params.(*stripeapi.SubscriptionListParams).Status, qt.Equals, "active")
	}
}

func TestPaymentStatsEmpty(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	stats, err := svc.PaymentStats(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(stats.SuccessRate, qt.Equals, 0.0)
	c.Assert(stats.RefundRate, qt.Equals, 0.0)
	c.Assert(stats.AverageValue.IsZero(), qt.IsTrue)
	c.Assert(stats.ByMethod, qt.DeepEquals, []MethodStats{})
	c.Assert(gw.Calls("ListCharges"), qt.HasLen, 0)
}

func TestPaymentStats(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, &Config{RefundLookupWorkers: 3})

	intent := func(id string, status stripeapi.PaymentIntentStatus, received int64, method string) {
		gw.PaymentIntents = append(gw.PaymentIntents, &stripeapi.PaymentIntent{
			ID: id, Status: status, AmountReceived: received, PaymentMethodTypes: []string{method},
		})
	}
	intent("pi_1", stripeapi.PaymentIntentStatusSucceeded, 1000, "card")
	intent("pi_2", stripeapi.PaymentIntentStatusSucceeded, 3000, "card")
	intent("pi_3", stripeapi.PaymentIntentStatusSucceeded, 500, "sepa_debit")
	intent("pi_4", stripeapi.PaymentIntentStatusRequiresPaymentMethod, 0, "card")

	charge := func(id, pi string, refunded bool, amountRefunded int64) {
		gw.Charges = append(gw.Charges, &stripeapi.Charge{
			ID: id, PaymentIntent: &stripeapi.PaymentIntent{ID: pi}, Refunded: refunded, AmountRefunded: amountRefunded,
		})
	}
	charge("ch_1", "pi_1", true, 1000)
	charge("ch_2", "pi_2", false, 500) // partial refund counts
	charge("ch_2b", "pi_2", false, 0)
	charge("ch_3", "pi_3", false, 0)

	stats, err := svc.PaymentStats(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(stats.Total, qt.Equals, 4)
	c.Assert(stats.SuccessRate, qt.Equals, 75.0)
	c.Assert(stats.RefundRate, qt.Equals, 50.0)
	c.Assert(stats.AverageValue.String(), qt.Equals, "15")
	c.Assert(stats.ByMethod, qt.HasLen, 2)
	c.Assert(stats.ByMethod[0].Method, qt.Equals, "card")
	c.Assert(stats.ByMethod[0].Count, qt.Equals, 2)
	c.Assert(stats.ByMethod[0].Value.String(), qt.Equals, "40")
	c.Assert(stats.ByMethod[1].Method, qt.Equals, "sepa_debit")
	c.Assert(stats.ByMethod[1].Value.String(), qt.Equals, "5")

	// one charge lookup per intent, and only the latest 100 intents
	c.Assert(gw.Calls("ListCharges"), qt.HasLen, 4)
	lists := gw.Calls("ListPaymentIntents")
	c.Assert(lists, qt.HasLen, 1)
	c.Assert(*lists[0].Params.(*stripeapi.PaymentIntentListParams).Limit, qt.Equals, int64(100))
}

func TestPaymentStatsOnlyRecentWindow(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	for i := 0; i < 150; i++ {
		gw.PaymentIntents = append(gw.PaymentIntents, &stripeapi.PaymentIntent{
			ID: fmt.Sprintf("pi_%d", i), Status: stripeapi.PaymentIntentStatusSucceeded, AmountReceived: 100,
		})
	}
	stats, err := svc.PaymentStats(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(stats.Total, qt.Equals, 100)
	c.Assert(gw.Calls("ListPaymentIntents"), qt.HasLen, 1)
	c.Assert(stats.ByMethod[0].Method, qt.Equals, "unknown")
}

func TestPaymentStatsRefundLookupFailure(t *testing.T) {
	c := qt.New(t)
	svc, gw := newTestService(c, nil)
	gw.PaymentIntents = append(gw.PaymentIntents, &stripeapi.PaymentIntent{ID: "pi_1"})
	gw.FailOn("ListCharges", testutil.PlatformError(http.StatusInternalServerError, "", "boom"))
	_, err := svc.PaymentStats(context.Background())
	c.Assert(errors.Is(err, ErrGateway), qt.IsTrue)
}

func TestMoneyConversion(t *testing.T) {
	c := qt.New(t)
	c.Assert(FromMinor(12345).String(), qt.Equals, "123.45")
	c.Assert(FromMinor(0).IsZero(), qt.IsTrue)

	cents, err := ToMinor(decimal.RequireFromString("19.99"))
	c.Assert(err, qt.IsNil)
	c.Assert(cents, qt.Equals, int64(1999))

	_, err = ToMinor(decimal.RequireFromString("19.999"))
	c.Assert(err, qt.IsNotNil)

	cents, err = ToMinor(decimal.RequireFromString("92233720368547758.07"))
	c.Assert(err, qt.IsNil)
	c.Assert(cents, qt.Equals, int64(math.MaxInt64))

	// one cent past int64 must not wrap around
	for _, amount := range []string{"92233720368547758.08", "184467440737095517.16", "-92233720368547758.09"} {
		_, err = ToMinor(decimal.RequireFromString(amount))
		c.Assert(err, qt.ErrorMatches, ".*out of range", qt.Commentf("amount %s", amount))
	}
}
