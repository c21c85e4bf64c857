package api

import (
	"encoding/json"

	"github.com/vocdoni/payments-backend/payments"
)

// Amount and date fields accept a JSON number or a string, so they are
// decoded as any and converted by the handler.

// CustomerRequest is the body of POST /customers.
type CustomerRequest struct {
	Email       string `json:"email" validate:"required"`
	Description string `json:"description"`
}

// AttachPaymentRequest is the body of POST /customers/{id}/attach-payment.
type AttachPaymentRequest struct {
	PaymentMethodID string `json:"paymentMethodId" validate:"required,objectid"`
}

// SubscriptionRequest is the body of POST /subscriptions. StartDate is
// optional, in unix seconds or as a date string.
type SubscriptionRequest struct {
	CustomerID string `json:"customerId" validate:"required,objectid"`
	PriceID    string `json:"priceId" validate:"required,objectid"`
	StartDate  any    `json:"startDate,omitempty"`
}

// PriceRequest is the body of POST /prices. PlanPrice is in major units.
type PriceRequest struct {
	PlanName  string `json:"planName" validate:"required"`
	PlanPrice any    `json:"planPrice" validate:"required"`
}

// ChargeRequest is the body of POST /charge. Amount is in cents.
type ChargeRequest struct {
	CustomerID  string `json:"customerId" validate:"required,objectid"`
	Amount      any    `json:"amount" validate:"required"`
	Description string `json:"description"`
}

// ChargeResponse is the answer of POST /charge.
type ChargeResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// EscrowRequest is the body of POST /escrow/services and /escrow/deliveries.
type EscrowRequest struct {
	CustomerID           string         `json:"customerId" validate:"required,objectid"`
	Amount               any            `json:"amount" validate:"required"`
	Currency             string         `json:"currency" validate:"required,currency"`
	DestinationAccountID string         `json:"destinationAccountId" validate:"required,objectid"`
	Metadata             map[string]any `json:"metadata"`
}

// CaptureResponse is the answer of POST /escrow/{id}/capture.
type CaptureResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
	AmountReceived  int64  `json:"amountReceived"`
}

// CheckoutRequest is the body of POST /checkout/sessions.
type CheckoutRequest struct {
	PriceID    string `json:"priceId" validate:"required,objectid"`
	Quantity   int64  `json:"quantity" validate:"gte=0"`
	Mode       string `json:"mode" validate:"omitempty,oneof=subscription payment"`
	CustomerID string `json:"customerId" validate:"omitempty,objectid"`
}

// CheckoutResponse is the answer of POST /checkout/sessions.
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// PortalRequest is the body of POST /portal.
type PortalRequest struct {
	CustomerID string `json:"customerId" validate:"required,objectid"`
}

// URLResponse carries a redirect URL.
type URLResponse struct {
	URL string `json:"url"`
}

// SuccessResponse acknowledges an operation with no other result.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// CustomAccountRequest is the body of POST /connect/custom.
type CustomAccountRequest struct {
	AccountToken string `json:"accountToken" validate:"required"`
}

// AccountStatusResponse is the answer of GET /connect/{id}/status. Known is
// false when the platform could not be asked, the three flags are then false.
type AccountStatusResponse struct {
	payments.AccountStatus
	Known bool `json:"known"`
}

// TransferRequest is the body of POST /connect/{id}/transfer. Amount is in cents.
type TransferRequest struct {
	Amount any `json:"amount" validate:"required"`
}

// TransferResponse is the answer of POST /connect/{id}/transfer. Synthetic
// transfers moved no money.
type TransferResponse struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
	Created     int64  `json:"created"`
	Synthetic   bool   `json:"synthetic"`
}

// RevenueRequest is the body of POST /stats/revenue, both ends in unix seconds.
type RevenueRequest struct {
	StartDate any `json:"startDate" validate:"required"`
	EndDate   any `json:"endDate" validate:"required"`
}

// RevenueResponse is the answer of POST /stats/revenue.
type RevenueResponse struct {
	TotalRevenueEuro json.Number `json:"totalRevenueEuro"`
}

// MethodStatsResponse is one entry of PaymentStatsResponse.ByMethod.
type MethodStatsResponse struct {
	Method string      `json:"method"`
	Count  int         `json:"count"`
	Value  json.Number `json:"value"`
}

// PaymentStatsResponse is the answer of GET /stats/payments, values in major units.
type PaymentStatsResponse struct {
	Total        int                   `json:"total"`
	SuccessRate  float64               `json:"successRate"`
	RefundRate   float64               `json:"refundRate"`
	AverageValue json.Number           `json:"averageValue"`
	ByMethod     []MethodStatsResponse `json:"byMethod"`
}

// FallbacksResponse is the answer of GET /ops/fallbacks.
type FallbacksResponse struct {
	Fallbacks []*payments.Fallback `json:"fallbacks"`
}

// WebhookResponse acknowledges a webhook delivery.
type WebhookResponse struct {
	Received bool `json:"received"`
}
