package payments

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v81"
	"go.vocdoni.io/dvote/log"
	"golang.org/x/sync/errgroup"
)

const (
	// statsPageSize is the page size used when walking collections.
	statsPageSize = 100
	// recentPaymentsWindow is how many payment attempts PaymentStats looks at.
	recentPaymentsWindow = 100
	// newCustomerWindow is how far back a customer counts as new.
	newCustomerWindow = 30 * 24 * time.Hour
)

// Stats computes derived figures from the platform's history. Nothing is
// cached, every call walks the collections again.
type Stats struct {
	base
}

// pageFunc fetches the page that starts after the cursor in lp.
type pageFunc[T any] func(ctx context.Context, lp stripeapi.ListParams) ([]T, bool, error)

// walk visits every item of a collection, one page at a time, using the id of
// the last item of each page as the cursor of the next one.
func walk[T any](ctx context.Context, fetch pageFunc[T], id func(T) string, visit func(T)) error {
	var cursor *string
	for {
		lp := stripeapi.ListParams{Limit: stripeapi.Int64(statsPageSize), StartingAfter: cursor}
		items, hasMore, err := fetch(ctx, lp)
		if err != nil {
			return err
		}
		for _, item := range items {
			visit(item)
		}
		if !hasMore || len(items) == 0 {
			return nil
		}
		cursor = stripeapi.String(id(items[len(items)-1]))
	}
}

// TotalRevenue sums the paid, non refunded charges created within
// [startUnix, endUnix] (unix seconds, both ends inclusive), and returns it in major units.
func (m *Stats) TotalRevenue(ctx context.Context, startUnix, endUnix int64) (decimal.Decimal, error) {
	const op = "getTotalRevenue"
	if endUnix < startUnix {
		return decimal.Zero, validationError(op, "", "end date is before start date")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()

	var cents int64
	err := walk(ctx, func(ctx context.Context, lp stripeapi.ListParams) ([]*stripeapi.Charge, bool, error) {
		return m.gw.ListCharges(ctx, &stripeapi.ChargeListParams{
			ListParams: lp,
			CreatedRange: &stripeapi.RangeQueryParams{
				GreaterThanOrEqual: startUnix,
				LesserThanOrEqual:  endUnix,
			},
		})
	}, func(ch *stripeapi.Charge) string { return ch.ID }, func(ch *stripeapi.Charge) {
		if ch.Paid && !ch.Refunded {
			cents += ch.Amount
		}
	})
	if err != nil {
		return decimal.Zero, gatewayError(op, "", err)
	}
	return FromMinor(cents), nil
}

// CustomerStats counts all the customers and those created in the last 30 days.
type CustomerStats struct {
	Total int `json:"total"`
	New   int `json:"new"`
}

// CustomerStats walks the whole customer collection once.
func (m *Stats) CustomerStats(ctx context.Context) (*CustomerStats, error) {
	const op = "getCustomerStats"
	ctx, cancel := m.call(ctx)
	defer cancel()

	since := m.now().Add(-newCustomerWindow).Unix()
	stats := &CustomerStats{}
	err := walk(ctx, func(ctx context.Context, lp stripeapi.ListParams) ([]*stripeapi.Customer, bool, error) {
		return m.gw.ListCustomers(ctx, &stripeapi.CustomerListParams{ListParams: lp})
	}, func(c *stripeapi.Customer) string { return c.ID }, func(c *stripeapi.Customer) {
		stats.Total++
		if c.Created >= since {
			stats.New++
		}
	})
	if err != nil {
		return nil, gatewayError(op, "", err)
	}
	return stats, nil
}

// SubscriberStats counts the active subscriptions.
type SubscriberStats struct {
	ActiveCount int `json:"activeCount"`
}

// SubscriberStats walks the active subscriptions.
func (m *Stats) SubscriberStats(ctx context.Context) (*SubscriberStats, error) {
	const op = "getSubscriberStats"
	ctx, cancel := m.call(ctx)
	defer cancel()

	stats := &SubscriberStats{}
	err := walk(ctx, func(ctx context.Context, lp stripeapi.ListParams) ([]*stripeapi.Subscription, bool, error) {
		return m.gw.ListSubscriptions(ctx, &stripeapi.SubscriptionListParams{
			ListParams: lp,
			Status:     stripeapi.String(string(stripeapi.SubscriptionStatusActive)),
		})
	}, func(s *stripeapi.Subscription) string { return s.ID }, func(*stripeapi.Subscription) {
		stats.ActiveCount++
	})
	if err != nil {
		return nil, gatewayError(op, "", err)
	}
	return stats, nil
}

// MethodStats aggregates the successful payments of one method type.
type MethodStats struct {
	Method string          `json:"method"`
	Count  int             `json:"count"`
	Value  decimal.Decimal `json:"value"`
}

// PaymentStats summarises the most recent payment attempts. Rates are
// percentages, values are in major units.
type PaymentStats struct {
	Total        int             `json:"total"`
	SuccessRate  float64         `json:"successRate"`
	RefundRate   float64         `json:"refundRate"`
	AverageValue decimal.Decimal `json:"averageValue"`
	ByMethod     []MethodStats   `json:"byMethod"`
}

// PaymentStats looks at the last 100 payment attempts only, and checks the
// charges of each one for refunds with a bounded number of concurrent lookups.
func (m *Stats) PaymentStats(ctx context.Context) (*PaymentStats, error) {
	const op = "getPaymentStats"
	ctx, cancel := m.call(ctx)
	defer cancel()

	params := &stripeapi.PaymentIntentListParams{}
	params.Limit = stripeapi.Int64(recentPaymentsWindow)
	intents, _, err := m.gw.ListPaymentIntents(ctx, params)
	if err != nil {
		return nil, gatewayError(op, "", err)
	}
	stats := &PaymentStats{
		Total:        len(intents),
		AverageValue: decimal.Zero,
		ByMethod:     []MethodStats{},
	}
	if len(intents) == 0 {
		return stats, nil
	}

	refunded, err := m.countRefunded(ctx, intents)
	if err != nil {
		return nil, gatewayError(op, "", err)
	}

	var (
		succeeded     int
		receivedCents int64
		byMethod      = make(map[string]*MethodStats)
	)
	for _, pi := range intents {
		if pi.Status != stripeapi.PaymentIntentStatusSucceeded {
			continue
		}
		succeeded++
		receivedCents += pi.AmountReceived
		method := "unknown"
		if len(pi.PaymentMethodTypes) > 0 {
			method = pi.PaymentMethodTypes[0]
		}
		ms, ok := byMethod[method]
		if !ok {
			ms = &MethodStats{Method: method, Value: decimal.Zero}
			byMethod[method] = ms
		}
		ms.Count++
		ms.Value = ms.Value.Add(FromMinor(pi.AmountReceived))
	}

	total := float64(len(intents))
	stats.SuccessRate = float64(succeeded) / total * 100
	stats.RefundRate = float64(refunded) / total * 100
	if succeeded > 0 {
		stats.AverageValue = FromMinor(receivedCents).Div(decimal.NewFromInt(int64(succeeded)))
	}
	for _, ms := range byMethod {
		stats.ByMethod = append(stats.ByMethod, *ms)
	}
	sort.Slice(stats.ByMethod, func(i, j int) bool {
		return stats.ByMethod[i].Method < stats.ByMethod[j].Method
	})
	log.Debugw("payment stats computed", "total", stats.Total, "succeeded", succeeded, "refunded", refunded)
	return stats, nil
}

// countRefunded counts the intents with at least one refunded charge. The
// first failing lookup cancels the others.
func (m *Stats) countRefunded(ctx context.Context, intents []*stripeapi.PaymentIntent) (int, error) {
	var (
		refunded atomic.Int64
		seen     sync.Map
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.conf.RefundLookupWorkers)
	for _, pi := range intents {
		id := pi.ID
		g.Go(func() error {
			params := &stripeapi.ChargeListParams{PaymentIntent: stripeapi.String(id)}
			params.Limit = stripeapi.Int64(statsPageSize)
			charges, _, err := m.gw.ListCharges(gctx, params)
			if err != nil {
				return err
			}
			for _, ch := range charges {
				if ch.Refunded || ch.AmountRefunded > 0 {
					if _, dup := seen.LoadOrStore(id, struct{}{}); !dup {
						refunded.Add(1)
					}
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(refunded.Load()), nil
}
