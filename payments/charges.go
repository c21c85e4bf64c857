package payments

import (
	"context"
	"strings"

	"github.com/spf13/cast"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/payments-backend/stripe"
	"go.vocdoni.io/dvote/log"
)

// Business purposes carried in the metadata of escrow intents.
const (
	MetadataPurpose        = "purpose"
	PurposeServiceBooking  = "service_booking"
	PurposeDeliveryPayment = "delivery_payment"
)

// Charges runs one-shot and manual-capture (escrow) charge flows.
type Charges struct {
	base
}

// ChargeCustomerImmediately debits the customer's first listed card off
// session and returns the payment intent id. A declined card or one that
// needs the cardholder to authenticate fails with ErrPaymentDeclined.
func (m *Charges) ChargeCustomerImmediately(ctx context.Context, customerID string, amount int64, description string,
) (string, error) {
	const op = "chargeCustomerImmediately"
	if customerID == "" {
		return "", validationError(op, "", "customer id is required")
	}
	if amount <= 0 {
		return "", validationError(op, customerID, "amount must be a positive number of cents")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()

	cards, err := m.cards(ctx, customerID)
	if err != nil {
		return "", gatewayError(op, customerID, err)
	}
	if len(cards) == 0 {
		return "", validationError(op, customerID, "no instrument")
	}

	intent, err := m.gw.NewPaymentIntent(ctx, &stripeapi.PaymentIntentParams{
		Amount:        stripeapi.Int64(amount),
		Currency:      stripeapi.String(m.conf.Currency),
		Customer:      stripeapi.String(customerID),
		PaymentMethod: stripeapi.String(cards[0].ID),
		Description:   stripeapi.String(description),
		OffSession:    stripeapi.Bool(true),
		Confirm:       stripeapi.Bool(true),
	})
	if err != nil {
		if stripe.IsDeclined(err) {
			declinedPayments.Inc()
			log.Infow("immediate charge declined", "customerId", customerID, "amount", amount)
			return "", &Error{Code: CodePaymentDeclined, Op: op, Subject: customerID, Message: ErrPaymentDeclined.Message, Err: err}
		}
		return "", gatewayError(op, customerID, err)
	}
	log.Infow("customer charged", "customerId", customerID, "paymentIntentId", intent.ID, "amount", amount)
	return intent.ID, nil
}

// EscrowRequest describes a manual-capture charge routed to a connected account.
type EscrowRequest struct {
	CustomerID           string
	Amount               int64
	Currency             string
	DestinationAccountID string
	// Purpose, when set, is stored as the purpose metadata entry.
	Purpose  string
	Metadata map[string]any
}

// EscrowIntent is an authorized, not yet captured, charge.
type EscrowIntent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
}

// CreateEscrowIntent authorizes a charge that is only captured on fulfilment,
// with the funds routed to the destination account.
func (m *Charges) CreateEscrowIntent(ctx context.Context, req *EscrowRequest) (*EscrowIntent, error) {
	const op = "createEscrowIntent"
	if req == nil {
		return nil, validationError(op, "", "request is required")
	}
	var missing []string
	if req.CustomerID == "" {
		missing = append(missing, "customerId")
	}
	if req.Amount <= 0 {
		missing = append(missing, "amount")
	}
	if req.Currency == "" {
		missing = append(missing, "currency")
	}
	if req.DestinationAccountID == "" {
		missing = append(missing, "destinationAccountId")
	}
	if len(req.Metadata) == 0 && req.Purpose == "" {
		missing = append(missing, "metadata")
	}
	if len(missing) > 0 {
		return nil, validationError(op, req.CustomerID, "missing or invalid: %s", strings.Join(missing, ", "))
	}

	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, validationError(op, req.CustomerID, "metadata %q is not a scalar value", k)
		}
		metadata[k] = s
	}
	if req.Purpose != "" {
		metadata[MetadataPurpose] = req.Purpose
	}

	ctx, cancel := m.call(ctx)
	defer cancel()
	intent, err := m.gw.NewPaymentIntent(ctx, &stripeapi.PaymentIntentParams{
		Amount:        stripeapi.Int64(req.Amount),
		Currency:      stripeapi.String(strings.ToLower(req.Currency)),
		Customer:      stripeapi.String(req.CustomerID),
		CaptureMethod: stripeapi.String(string(stripeapi.PaymentIntentCaptureMethodManual)),
		TransferData: &stripeapi.PaymentIntentTransferDataParams{
			Destination: stripeapi.String(req.DestinationAccountID),
		},
		Metadata: metadata,
	})
	if err != nil {
		return nil, gatewayError(op, req.CustomerID, err)
	}
	log.Infow("escrow intent created", "customerId", req.CustomerID, "paymentIntentId", intent.ID,
		"destination", req.DestinationAccountID, "purpose", metadata[MetadataPurpose])
	return &EscrowIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// CaptureEscrowIntent finalizes an authorized manual-capture charge.
func (m *Charges) CaptureEscrowIntent(ctx context.Context, intentID string) (*stripeapi.PaymentIntent, error) {
	const op = "captureEscrowIntent"
	if intentID == "" {
		return nil, validationError(op, "", "payment intent id is required")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()
	intent, err := m.gw.CapturePaymentIntent(ctx, intentID, &stripeapi.PaymentIntentCaptureParams{})
	if err != nil {
		return nil, gatewayError(op, intentID, err)
	}
	log.Infow("escrow intent captured", "paymentIntentId", intent.ID, "amountReceived", intent.AmountReceived)
	return intent, nil
}
