package payments

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v81"
)

// Gateway is the authenticated channel to the payment platform. Every method
// is a single remote call. List methods return one page and whether the
// platform holds more after it; walking the collection is up to the caller.
//
// The production implementation is *stripe.Client.
type Gateway interface {
	NewCustomer(ctx context.Context, params *stripeapi.CustomerParams) (*stripeapi.Customer, error)
	UpdateCustomer(ctx context.Context, id string, params *stripeapi.CustomerParams) (*stripeapi.Customer, error)
	ListCustomers(ctx context.Context, params *stripeapi.CustomerListParams) ([]*stripeapi.Customer, bool, error)

	ListPaymentMethods(ctx context.Context, params *stripeapi.PaymentMethodListParams,
	) ([]*stripeapi.PaymentMethod, bool, error)
	AttachPaymentMethod(ctx context.Context, id string, params *stripeapi.PaymentMethodAttachParams,
	) (*stripeapi.PaymentMethod, error)

	NewSubscription(ctx context.Context, params *stripeapi.SubscriptionParams) (*stripeapi.Subscription, error)
	UpdateSubscription(ctx context.Context, id string, params *stripeapi.SubscriptionParams,
	) (*stripeapi.Subscription, error)
	ListSubscriptions(ctx context.Context, params *stripeapi.SubscriptionListParams,
	) ([]*stripeapi.Subscription, bool, error)

	NewPaymentIntent(ctx context.Context, params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error)
	CapturePaymentIntent(ctx context.Context, id string, params *stripeapi.PaymentIntentCaptureParams,
	) (*stripeapi.PaymentIntent, error)
	ListPaymentIntents(ctx context.Context, params *stripeapi.PaymentIntentListParams,
	) ([]*stripeapi.PaymentIntent, bool, error)
	ListCharges(ctx context.Context, params *stripeapi.ChargeListParams) ([]*stripeapi.Charge, bool, error)

	NewAccount(ctx context.Context, params *stripeapi.AccountParams) (*stripeapi.Account, error)
	GetAccount(ctx context.Context, id string) (*stripeapi.Account, error)
	NewAccountLink(ctx context.Context, params *stripeapi.AccountLinkParams) (*stripeapi.AccountLink, error)
	NewTransfer(ctx context.Context, params *stripeapi.TransferParams) (*stripeapi.Transfer, error)

	NewPrice(ctx context.Context, params *stripeapi.PriceParams) (*stripeapi.Price, error)
	NewCheckoutSession(ctx context.Context, params *stripeapi.CheckoutSessionParams,
	) (*stripeapi.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*stripeapi.CheckoutSession, error)
	NewPortalSession(ctx context.Context, params *stripeapi.BillingPortalSessionParams,
	) (*stripeapi.BillingPortalSession, error)
}
