package api

const (
	// GET /ping to check the service is up
	pingEndpoint = "/ping"
	// GET /metrics to scrape the Prometheus metrics
	metricsEndpoint = "/metrics"

	// customer routes

	// POST /customers to create a customer
	customersEndpoint = "/customers"
	// POST /customers/{id}/attach-payment to attach a card and make it the default
	customerAttachEndpoint = "/customers/{id}/attach-payment"

	// subscription routes

	// POST /subscriptions to subscribe a customer to a price
	subscriptionsEndpoint = "/subscriptions"
	// POST /subscriptions/{id}/cancel to cancel a subscription at period end
	subscriptionCancelEndpoint = "/subscriptions/{id}/cancel"
	// POST /prices to create a monthly price for a plan
	pricesEndpoint = "/prices"
	// POST /checkout/sessions to create a hosted checkout session
	checkoutSessionsEndpoint = "/checkout/sessions"
	// GET /checkout/sessions/{id} to get the status of a checkout session
	checkoutSessionEndpoint = "/checkout/sessions/{id}"
	// POST /portal to create a customer portal session
	portalEndpoint = "/portal"

	// charge routes

	// POST /charge to charge a customer's default card now
	chargeEndpoint = "/charge"
	// POST /escrow/services to authorize a service booking payment
	escrowServicesEndpoint = "/escrow/services"
	// POST /escrow/deliveries to authorize a delivery payment
	escrowDeliveriesEndpoint = "/escrow/deliveries"
	// POST /escrow/{id}/capture to capture an authorized payment
	escrowCaptureEndpoint = "/escrow/{id}/capture"

	// connected account routes

	// POST /connect/express to create an express account
	connectExpressEndpoint = "/connect/express"
	// POST /connect/custom to create a custom account from an account token
	connectCustomEndpoint = "/connect/custom"
	// GET /connect/{id}/status to get the readiness of an account
	connectStatusEndpoint = "/connect/{id}/status"
	// POST /connect/{id}/link to get an onboarding link
	connectLinkEndpoint = "/connect/{id}/link"
	// POST /connect/{id}/transfer to move funds to an account
	connectTransferEndpoint = "/connect/{id}/transfer"

	// operator routes

	// GET /stats/customers to count customers
	statsCustomersEndpoint = "/stats/customers"
	// GET /stats/subscribers to count active subscriptions
	statsSubscribersEndpoint = "/stats/subscribers"
	// GET /stats/payments to aggregate the latest payment attempts
	statsPaymentsEndpoint = "/stats/payments"
	// POST /stats/revenue to sum the revenue of a time window
	statsRevenueEndpoint = "/stats/revenue"
	// GET /ops/fallbacks to list the recorded soft failures
	opsFallbacksEndpoint = "/ops/fallbacks"

	// POST /webhook to receive platform events
	webhookEndpoint = "/webhook"
)
