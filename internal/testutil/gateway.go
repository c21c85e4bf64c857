// Package testutil holds an in-memory payment platform used by the package tests.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	stripeapi "github.com/stripe/stripe-go/v81"
)

// Call is one recorded gateway invocation.
type Call struct {
	Method string
	ID     string
	Params any
}

// Gateway is a scripted, in-memory stand-in for the platform adapter. Lists
// honour Limit and StartingAfter the way the platform does, so pagination
// code can be exercised against collections larger than one page.
type Gateway struct {
	mu sync.Mutex

	Customers      []*stripeapi.Customer
	PaymentMethods []*stripeapi.PaymentMethod
	Subscriptions  []*stripeapi.Subscription
	PaymentIntents []*stripeapi.PaymentIntent
	Charges        []*stripeapi.Charge
	Accounts       map[string]*stripeapi.Account
	Sessions       map[string]*stripeapi.CheckoutSession

	calls []Call
	fail  map[string]error
	seq   int
}

// NewGateway returns an empty fake platform.
func NewGateway() *Gateway {
	return &Gateway{
		Accounts: make(map[string]*stripeapi.Account),
		Sessions: make(map[string]*stripeapi.CheckoutSession),
		fail:     make(map[string]error),
	}
}

// FailOn makes every later call to method return err.
func (g *Gateway) FailOn(method string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[method] = err
}

// Calls returns the recorded invocations of method.
func (g *Gateway) Calls(method string) []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Call
	for _, c := range g.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// PlatformError builds an error shaped like the ones the platform returns.
func PlatformError(status int, code stripeapi.ErrorCode, msg string) *stripeapi.Error {
	return &stripeapi.Error{
		HTTPStatusCode: status,
		Code:           code,
		Msg:            msg,
		Type:           stripeapi.ErrorTypeInvalidRequest,
		RequestID:      "req_test",
	}
}

// CardDeclined is the error the platform returns for a refused card.
func CardDeclined() *stripeapi.Error {
	err := PlatformError(http.StatusPaymentRequired, stripeapi.ErrorCodeCardDeclined, "Your card was declined.")
	err.Type = stripeapi.ErrorTypeCard
	return err
}

func (g *Gateway) record(method, id string, params any) error {
	g.calls = append(g.calls, Call{Method: method, ID: id, Params: params})
	return g.fail[method]
}

func (g *Gateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_%d", prefix, g.seq)
}

func missing(kind, id string) error {
	return PlatformError(http.StatusNotFound, stripeapi.ErrorCodeResourceMissing,
		fmt.Sprintf("No such %s: '%s'", kind, id))
}

// page cuts one platform page out of items.
func page[T any](items []T, lp stripeapi.ListParams, id func(T) string) ([]T, bool) {
	start := 0
	if lp.StartingAfter != nil {
		for i, item := range items {
			if id(item) == *lp.StartingAfter {
				start = i + 1
				break
			}
		}
	}
	limit := 10
	if lp.Limit != nil {
		limit = int(*lp.Limit)
	}
	end := start + limit
	if end >= len(items) {
		return append([]T(nil), items[start:]...), false
	}
	return append([]T(nil), items[start:end]...), true
}

func inRange(created int64, r *stripeapi.RangeQueryParams) bool {
	if r == nil {
		return true
	}
	if r.GreaterThanOrEqual != 0 && created < r.GreaterThanOrEqual {
		return false
	}
	if r.GreaterThan != 0 && created <= r.GreaterThan {
		return false
	}
	if r.LesserThanOrEqual != 0 && created > r.LesserThanOrEqual {
		return false
	}
	if r.LesserThan != 0 && created >= r.LesserThan {
		return false
	}
	return true
}

func (g *Gateway) NewCustomer(_ context.Context, params *stripeapi.CustomerParams) (*stripeapi.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("NewCustomer", "", params); err != nil {
		return nil, err
	}
	customer := &stripeapi.Customer{
		ID:          g.nextID("cus"),
		Object:      "customer",
		Email:       stringValue(params.Email),
		Description: stringValue(params.Description),
		Created:     time.Now().Unix(),
	}
	g.Customers = append(g.Customers, customer)
	return customer, nil
}

func (g *Gateway) UpdateCustomer(_ context.Context, id string, params *stripeapi.CustomerParams,
) (*stripeapi.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("UpdateCustomer", id, params); err != nil {
		return nil, err
	}
	for _, customer := range g.Customers {
		if customer.ID != id {
			continue
		}
		if params.InvoiceSettings != nil && params.InvoiceSettings.DefaultPaymentMethod != nil {
			customer.InvoiceSettings = &stripeapi.CustomerInvoiceSettings{
				DefaultPaymentMethod: &stripeapi.PaymentMethod{ID: *params.InvoiceSettings.DefaultPaymentMethod},
			}
		}
		return customer, nil
	}
	return nil, missing("customer", id)
}

func (g *Gateway) ListCustomers(_ context.Context, params *stripeapi.CustomerListParams,
) ([]*stripeapi.Customer, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("ListCustomers", "", params); err != nil {
		return nil, false, err
	}
	items, more := page(g.Customers, params.ListParams, func(c *stripeapi.Customer) string { return c.ID })
	return items, more, nil
}

func (g *Gateway) ListPaymentMethods(_ context.Context, params *stripeapi.PaymentMethodListParams,
) ([]*stripeapi.PaymentMethod, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("ListPaymentMethods", stringValue(params.Customer), params); err != nil {
		return nil, false, err
	}
	var owned []*stripeapi.PaymentMethod
	for _, pm := range g.PaymentMethods {
		if pm.Customer == nil || pm.Customer.ID != stringValue(params.Customer) {
			continue
		}
		if params.Type != nil && string(pm.Type) != *params.Type {
			continue
		}
		owned = append(owned, pm)
	}
	items, more := page(owned, params.ListParams, func(pm *stripeapi.PaymentMethod) string { return pm.ID })
	return items, more, nil
}

func (g *Gateway) AttachPaymentMethod(_ context.Context, id string, params *stripeapi.PaymentMethodAttachParams,
) (*stripeapi.PaymentMethod, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("AttachPaymentMethod", id, params); err != nil {
		return nil, err
	}
	pm := &stripeapi.PaymentMethod{
		ID:       id,
		Object:   "payment_method",
		Type:     stripeapi.PaymentMethodTypeCard,
		Customer: &stripeapi.Customer{ID: stringValue(params.Customer)},
	}
	g.PaymentMethods = append(g.PaymentMethods, pm)
	return pm, nil
}

func (g *Gateway) NewSubscription(_ context.Context, params *stripeapi.SubscriptionParams,
) (*stripeapi.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("NewSubscription", "", params); err != nil {
		return nil, err
	}
	sub := &stripeapi.Subscription{
		ID:       g.nextID("sub"),
		Object:   "subscription",
		Customer: &stripeapi.Customer{ID: stringValue(params.Customer)},
		Status:   stripeapi.SubscriptionStatusActive,
		Created:  time.Now().Unix(),
	}
	if params.TrialEnd != nil {
		sub.TrialEnd = *params.TrialEnd
		sub.Status = stripeapi.SubscriptionStatusTrialing
	}
	g.Subscriptions = append(g.Subscriptions, sub)
	return sub, nil
}

func (g *Gateway) UpdateSubscription(_ context.Context, id string, params *stripeapi.SubscriptionParams,
) (*stripeapi.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("UpdateSubscription", id, params); err != nil {
		return nil, err
	}
	for _, sub := range g.Subscriptions {
		if sub.ID != id {
			continue
		}
		if params.CancelAtPeriodEnd != nil {
			sub.CancelAtPeriodEnd = *params.CancelAtPeriodEnd
		}
		return sub, nil
	}
	return nil, missing("subscription", id)
}

func (g *Gateway) ListSubscriptions(_ context.Context, params *stripeapi.SubscriptionListParams,
) ([]*stripeapi.Subscription, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("ListSubscriptions", "", params); err != nil {
		return nil, false, err
	}
	var matching []*stripeapi.Subscription
	for _, sub := range g.Subscriptions {
		if params.Status != nil && string(sub.Status) != *params.Status {
			continue
		}
		matching = append(matching, sub)
	}
	items, more := page(matching, params.ListParams, func(s *stripeapi.Subscription) string { return s.ID })
	return items, more, nil
}

func (g *Gateway) NewPaymentIntent(_ context.Context, params *stripeapi.PaymentIntentParams,
) (*stripeapi.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("NewPaymentIntent", "", params); err != nil {
		return nil, err
	}
	id := g.nextID("pi")
	intent := &stripeapi.PaymentIntent{
		ID:                 id,
		Object:             "payment_intent",
		Amount:             int64Value(params.Amount),
		Currency:           stripeapi.Currency(stringValue(params.Currency)),
		ClientSecret:       id + "_secret_test",
		Status:             stripeapi.PaymentIntentStatusRequiresPaymentMethod,
		PaymentMethodTypes: []string{"card"},
		Metadata:           params.Metadata,
		Created:            time.Now().Unix(),
	}
	switch {
	case params.CaptureMethod != nil && *params.CaptureMethod == string(stripeapi.PaymentIntentCaptureMethodManual):
		intent.CaptureMethod = stripeapi.PaymentIntentCaptureMethodManual
		intent.Status = stripeapi.PaymentIntentStatusRequiresCapture
	case params.Confirm != nil && *params.Confirm:
		intent.Status = stripeapi.PaymentIntentStatusSucceeded
		intent.AmountReceived = intent.Amount
	}
	g.PaymentIntents = append(g.PaymentIntents, intent)
	return intent, nil
}

func (g *Gateway) CapturePaymentIntent(_ context.Context, id string, params *stripeapi.PaymentIntentCaptureParams,
) (*stripeapi.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("CapturePaymentIntent", id, params); err != nil {
		return nil, err
	}
	for _, intent := range g.PaymentIntents {
		if intent.ID != id {
			continue
		}
		if intent.Status != stripeapi.PaymentIntentStatusRequiresCapture {
			return nil, PlatformError(http.StatusBadRequest, stripeapi.ErrorCodePaymentIntentUnexpectedState,
				"This PaymentIntent could not be captured because it has a status of "+string(intent.Status)+".")
		}
		intent.Status = stripeapi.PaymentIntentStatusSucceeded
		intent.AmountReceived = intent.Amount
		return intent, nil
	}
	return nil, missing("payment_intent", id)
}

func (g *Gateway) ListPaymentIntents(_ context.Context, params *stripeapi.PaymentIntentListParams,
) ([]*stripeapi.PaymentIntent, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("ListPaymentIntents", "", params); err != nil {
		return nil, false, err
	}
	items, more := page(g.PaymentIntents, params.ListParams, func(pi *stripeapi.PaymentIntent) string { return pi.ID })
	return items, more, nil
}

func (g *Gateway) ListCharges(_ context.Context, params *stripeapi.ChargeListParams,
) ([]*stripeapi.Charge, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("ListCharges", stringValue(params.PaymentIntent), params); err != nil {
		return nil, false, err
	}
	var matching []*stripeapi.Charge
	for _, ch := range g.Charges {
		if params.PaymentIntent != nil && (ch.PaymentIntent == nil || ch.PaymentIntent.ID != *params.PaymentIntent) {
			continue
		}
		if !inRange(ch.Created, params.CreatedRange) {
			continue
		}
		matching = append(matching, ch)
	}
	items, more := page(matching, params.ListParams, func(ch *stripeapi.Charge) string { return ch.ID })
	return items, more, nil
}

func (g *Gateway) NewAccount(_ context.Context, params *stripeapi.AccountParams) (*stripeapi.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("NewAccount", "", params); err != nil {
		return nil, err
	}
	account := &stripeapi.Account{
		ID:      g.nextID("acct"),
		Object:  "account",
		Country: stringValue(params.Country),
		Type:    stripeapi.AccountType(stringValue(params.Type)),
	}
	g.Accounts[account.ID] = account
	return account, nil
}

func (g *Gateway) GetAccount(_ context.Context, id string) (*stripeapi.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("GetAccount", id, nil); err != nil {
		return nil, err
	}
	account, ok := g.Accounts[id]
	if !ok {
		return nil, missing("account", id)
	}
	return account, nil
}

func (g *Gateway) NewAccountLink(_ context.Context, params *stripeapi.AccountLinkParams,
) (*stripeapi.AccountLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := stringValue(params.Account)
	if err := g.record("NewAccountLink", id, params); err != nil {
		return nil, err
	}
	if _, ok := g.Accounts[id]; !ok {
		return nil, missing("account", id)
	}
	return &stripeapi.AccountLink{
		Object:    "account_link",
		URL:       "https://connect.stripe.test/setup/" + id,
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
	}, nil
}

func (g *Gateway) NewTransfer(_ context.Context, params *stripeapi.TransferParams) (*stripeapi.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("NewTransfer", stringValue(params.Destination), params); err != nil {
		return nil, err
	}
	return &stripeapi.Transfer{
		ID:          g.nextID("tr"),
		Object:      "transfer",
		Amount:      int64Value(params.Amount),
		Currency:    stripeapi.Currency(stringValue(params.Currency)),
		Destination: &stripeapi.Account{ID: stringValue(params.Destination)},
		Created:     time.Now().Unix(),
	}, nil
}

func (g *Gateway) NewPrice(_ context.Context, params *stripeapi.PriceParams) (*stripeapi.Price, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("NewPrice", "", params); err != nil {
		return nil, err
	}
	price := &stripeapi.Price{
		ID:         g.nextID("price"),
		Object:     "price",
		Currency:   stripeapi.Currency(stringValue(params.Currency)),
		UnitAmount: int64Value(params.UnitAmount),
		Active:     true,
	}
	if params.Recurring != nil {
		price.Recurring = &stripeapi.PriceRecurring{
			Interval: stripeapi.PriceRecurringInterval(stringValue(params.Recurring.Interval)),
		}
	}
	if params.ProductData != nil {
		price.Product = &stripeapi.Product{ID: g.nextID("prod"), Name: stringValue(params.ProductData.Name)}
	}
	return price, nil
}

func (g *Gateway) NewCheckoutSession(_ context.Context, params *stripeapi.CheckoutSessionParams,
) (*stripeapi.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("NewCheckoutSession", "", params); err != nil {
		return nil, err
	}
	id := g.nextID("cs")
	session := &stripeapi.CheckoutSession{
		ID:            id,
		Object:        "checkout.session",
		Mode:          stripeapi.CheckoutSessionMode(stringValue(params.Mode)),
		URL:           "https://checkout.stripe.test/c/pay/" + id,
		Status:        stripeapi.CheckoutSessionStatusOpen,
		PaymentStatus: stripeapi.CheckoutSessionPaymentStatusUnpaid,
	}
	g.Sessions[id] = session
	return session, nil
}

func (g *Gateway) GetCheckoutSession(_ context.Context, id string) (*stripeapi.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("GetCheckoutSession", id, nil); err != nil {
		return nil, err
	}
	session, ok := g.Sessions[id]
	if !ok {
		return nil, missing("checkout.session", id)
	}
	return session, nil
}

func (g *Gateway) NewPortalSession(_ context.Context, params *stripeapi.BillingPortalSessionParams,
) (*stripeapi.BillingPortalSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("NewPortalSession", stringValue(params.Customer), params); err != nil {
		return nil, err
	}
	return &stripeapi.BillingPortalSession{
		ID:        g.nextID("bps"),
		Object:    "billing_portal.session",
		Customer:  stringValue(params.Customer),
		ReturnURL: stringValue(params.ReturnURL),
		URL:       "https://billing.stripe.test/p/session/" + stringValue(params.Customer),
	}, nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int64Value(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
