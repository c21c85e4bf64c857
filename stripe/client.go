package stripe

import (
	"context"
	"net/http"

	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.vocdoni.io/dvote/log"
)

// Client wraps one authenticated Stripe API client. It is built once at
// startup and shared by every operation; it keeps no other state.
type Client struct {
	config *Config
	api    *client.API
}

// NewClient creates a new Stripe client with the given configuration.
// Automatic network retries are disabled, callers own retry policy.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, NewStripeError(CodeInvalidConfiguration, ErrInvalidConfiguration.Message, err)
	}
	backendConfig := &stripeapi.BackendConfig{
		HTTPClient:        &http.Client{Timeout: config.Timeout},
		MaxNetworkRetries: stripeapi.Int64(0),
		LeveledLogger:     &stripeapi.LeveledLogger{Level: stripeapi.LevelError},
	}
	if config.BackendURL != "" {
		backendConfig.URL = stripeapi.String(config.BackendURL)
	}
	backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, backendConfig)
	api := client.New(config.APIKey, &stripeapi.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
	log.Debugw("stripe client ready", "backend", config.BackendURL, "timeout", config.Timeout.String())
	return &Client{config: config, api: api}, nil
}

// onePage drains a single page of a list iterator. The iterator must come
// from list params with Single set, so no further page is requested.
func onePage[T any](it *stripeapi.Iter) ([]T, bool, error) {
	var items []T
	for it.Next() {
		item, ok := it.Current().(T)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	if err := it.Err(); err != nil {
		return nil, false, err
	}
	hasMore := false
	if meta := it.Meta(); meta != nil {
		hasMore = meta.HasMore
	}
	return items, hasMore, nil
}

func failed(message string, err error) error {
	return NewStripeError(CodeAPICallFailed, message, err)
}

// NewCustomer creates a customer.
func (c *Client) NewCustomer(ctx context.Context, params *stripeapi.CustomerParams) (*stripeapi.Customer, error) {
	params.Context = ctx
	customer, err := c.api.Customers.New(params)
	if err != nil {
		return nil, failed("failed to create customer", err)
	}
	return customer, nil
}

// UpdateCustomer updates a customer by ID.
func (c *Client) UpdateCustomer(ctx context.Context, id string, params *stripeapi.CustomerParams,
) (*stripeapi.Customer, error) {
	params.Context = ctx
	customer, err := c.api.Customers.Update(id, params)
	if err != nil {
		return nil, failed("failed to update customer", err)
	}
	return customer, nil
}

// ListCustomers fetches one page of customers.
func (c *Client) ListCustomers(ctx context.Context, params *stripeapi.CustomerListParams,
) ([]*stripeapi.Customer, bool, error) {
	params.Context = ctx
	params.Single = true
	customers, hasMore, err := onePage[*stripeapi.Customer](c.api.Customers.List(params).Iter)
	if err != nil {
		return nil, false, failed("failed to list customers", err)
	}
	return customers, hasMore, nil
}

// ListPaymentMethods fetches one page of payment methods.
func (c *Client) ListPaymentMethods(ctx context.Context, params *stripeapi.PaymentMethodListParams,
) ([]*stripeapi.PaymentMethod, bool, error) {
	params.Context = ctx
	params.Single = true
	methods, hasMore, err := onePage[*stripeapi.PaymentMethod](c.api.PaymentMethods.List(params).Iter)
	if err != nil {
		return nil, false, failed("failed to list payment methods", err)
	}
	return methods, hasMore, nil
}

// AttachPaymentMethod attaches a payment method to the customer named in params.
func (c *Client) AttachPaymentMethod(ctx context.Context, id string, params *stripeapi.PaymentMethodAttachParams,
) (*stripeapi.PaymentMethod, error) {
	params.Context = ctx
	method, err := c.api.PaymentMethods.Attach(id, params)
	if err != nil {
		return nil, failed("failed to attach payment method", err)
	}
	return method, nil
}

// NewSubscription creates a subscription.
func (c *Client) NewSubscription(ctx context.Context, params *stripeapi.SubscriptionParams,
) (*stripeapi.Subscription, error) {
	params.Context = ctx
	sub, err := c.api.Subscriptions.New(params)
	if err != nil {
		return nil, failed("failed to create subscription", err)
	}
	return sub, nil
}

// UpdateSubscription updates a subscription by ID.
func (c *Client) UpdateSubscription(ctx context.Context, id string, params *stripeapi.SubscriptionParams,
) (*stripeapi.Subscription, error) {
	params.Context = ctx
	sub, err := c.api.Subscriptions.Update(id, params)
	if err != nil {
		return nil, failed("failed to update subscription", err)
	}
	return sub, nil
}

// ListSubscriptions fetches one page of subscriptions.
func (c *Client) ListSubscriptions(ctx context.Context, params *stripeapi.SubscriptionListParams,
) ([]*stripeapi.Subscription, bool, error) {
	params.Context = ctx
	params.Single = true
	subs, hasMore, err := onePage[*stripeapi.Subscription](c.api.Subscriptions.List(params).Iter)
	if err != nil {
		return nil, false, failed("failed to list subscriptions", err)
	}
	return subs, hasMore, nil
}

// NewPaymentIntent creates (and, if params ask for it, confirms) a payment intent.
func (c *Client) NewPaymentIntent(ctx context.Context, params *stripeapi.PaymentIntentParams,
) (*stripeapi.PaymentIntent, error) {
	params.Context = ctx
	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, failed("failed to create payment intent", err)
	}
	return intent, nil
}

// CapturePaymentIntent captures an authorized manual-capture payment intent.
func (c *Client) CapturePaymentIntent(ctx context.Context, id string, params *stripeapi.PaymentIntentCaptureParams,
) (*stripeapi.PaymentIntent, error) {
	params.Context = ctx
	intent, err := c.api.PaymentIntents.Capture(id, params)
	if err != nil {
		return nil, failed("failed to capture payment intent", err)
	}
	return intent, nil
}

// ListPaymentIntents fetches one page of payment intents.
func (c *Client) ListPaymentIntents(ctx context.Context, params *stripeapi.PaymentIntentListParams,
) ([]*stripeapi.PaymentIntent, bool, error) {
	params.Context = ctx
	params.Single = true
	intents, hasMore, err := onePage[*stripeapi.PaymentIntent](c.api.PaymentIntents.List(params).Iter)
	if err != nil {
		return nil, false, failed("failed to list payment intents", err)
	}
	return intents, hasMore, nil
}

// ListCharges fetches one page of charges.
func (c *Client) ListCharges(ctx context.Context, params *stripeapi.ChargeListParams,
) ([]*stripeapi.Charge, bool, error) {
	params.Context = ctx
	params.Single = true
	charges, hasMore, err := onePage[*stripeapi.Charge](c.api.Charges.List(params).Iter)
	if err != nil {
		return nil, false, failed("failed to list charges", err)
	}
	return charges, hasMore, nil
}

// NewAccount creates a connected account.
func (c *Client) NewAccount(ctx context.Context, params *stripeapi.AccountParams) (*stripeapi.Account, error) {
	params.Context = ctx
	account, err := c.api.Accounts.New(params)
	if err != nil {
		return nil, failed("failed to create connected account", err)
	}
	return account, nil
}

// GetAccount retrieves a connected account by ID.
func (c *Client) GetAccount(ctx context.Context, id string) (*stripeapi.Account, error) {
	params := &stripeapi.AccountParams{}
	params.Context = ctx
	account, err := c.api.Accounts.GetByID(id, params)
	if err != nil {
		return nil, failed("failed to get connected account", err)
	}
	return account, nil
}

// NewAccountLink creates an onboarding link for a connected account.
func (c *Client) NewAccountLink(ctx context.Context, params *stripeapi.AccountLinkParams,
) (*stripeapi.AccountLink, error) {
	params.Context = ctx
	link, err := c.api.AccountLinks.New(params)
	if err != nil {
		return nil, failed("failed to create account link", err)
	}
	return link, nil
}

// NewTransfer moves platform funds to a connected account.
func (c *Client) NewTransfer(ctx context.Context, params *stripeapi.TransferParams) (*stripeapi.Transfer, error) {
	params.Context = ctx
	transfer, err := c.api.Transfers.New(params)
	if err != nil {
		return nil, failed("failed to create transfer", err)
	}
	return transfer, nil
}

// NewPrice creates a price.
func (c *Client) NewPrice(ctx context.Context, params *stripeapi.PriceParams) (*stripeapi.Price, error) {
	params.Context = ctx
	price, err := c.api.Prices.New(params)
	if err != nil {
		return nil, failed("failed to create price", err)
	}
	return price, nil
}

// NewCheckoutSession creates a hosted checkout session.
func (c *Client) NewCheckoutSession(ctx context.Context, params *stripeapi.CheckoutSessionParams,
) (*stripeapi.CheckoutSession, error) {
	params.Context = ctx
	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, failed("failed to create checkout session", err)
	}
	return session, nil
}

// GetCheckoutSession retrieves a checkout session by ID.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*stripeapi.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx
	session, err := c.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, failed("failed to get checkout session", err)
	}
	return session, nil
}

// NewPortalSession creates a customer portal session.
func (c *Client) NewPortalSession(ctx context.Context, params *stripeapi.BillingPortalSessionParams,
) (*stripeapi.BillingPortalSession, error) {
	params.Context = ctx
	session, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return nil, failed("failed to create portal session", err)
	}
	return session, nil
}
