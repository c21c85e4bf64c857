package payments

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_gateway_errors_total",
		Help: "Failed calls to the payment platform, by operation.",
	}, []string{"operation"})

	declinedPayments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_declined_total",
		Help: "Immediate charges declined by the card issuer or requiring authentication.",
	})

	syntheticTransfers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_synthetic_transfers_total",
		Help: "Transfers that failed upstream and were answered with a synthetic placeholder.",
	})

	unknownAccountStatus = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_account_status_unknown_total",
		Help: "Connected account status lookups that failed and were reported as not ready.",
	})

	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_webhook_events_total",
		Help: "Webhook deliveries by event type and outcome.",
	}, []string{"type", "outcome"})
)
