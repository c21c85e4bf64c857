package payments

import (
	"context"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v81"
	"go.vocdoni.io/dvote/log"
)

// instrumentPageSize is the single page of cards looked at when attaching or
// charging. Customers with more cards than this are not fully inspected.
const instrumentPageSize = 100

// Customers registers customers and their payment instruments.
type Customers struct {
	base
}

// CreateCustomer registers a customer on the platform. Only the presence of
// the email is checked here, its format is the platform's call.
func (m *Customers) CreateCustomer(ctx context.Context, email, description string) (*stripeapi.Customer, error) {
	const op = "createCustomer"
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationError(op, "", "email is required")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()

	customer, err := m.gw.NewCustomer(ctx, &stripeapi.CustomerParams{
		Email:       stripeapi.String(email),
		Description: stripeapi.String(description),
	})
	if err != nil {
		return nil, gatewayError(op, email, err)
	}
	log.Infow("customer created", "customerId", customer.ID)
	return customer, nil
}

// cards returns the first page of the customer's card instruments.
func (b *base) cards(ctx context.Context, customerID string) ([]*stripeapi.PaymentMethod, error) {
	params := &stripeapi.PaymentMethodListParams{
		Customer: stripeapi.String(customerID),
		Type:     stripeapi.String(string(stripeapi.PaymentMethodTypeCard)),
	}
	params.Limit = stripeapi.Int64(instrumentPageSize)
	cards, _, err := b.gw.ListPaymentMethods(ctx, params)
	return cards, err
}

// AttachInstrument attaches a card to the customer and makes it the default
// invoicing instrument. It fails with a conflict if the card is already
// attached. The two platform calls are not atomic: if setting the default
// fails the card stays attached and the error says so.
func (m *Customers) AttachInstrument(ctx context.Context, customerID, instrumentID string) error {
	const op = "attachInstrument"
	if customerID == "" || instrumentID == "" {
		return validationError(op, customerID, "customer id and payment method id are required")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()

	cards, err := m.cards(ctx, customerID)
	if err != nil {
		return gatewayError(op, customerID, err)
	}
	for _, card := range cards {
		if card.ID == instrumentID {
			return &Error{
				Code: CodeConflict, Op: op, Subject: customerID,
				Message: "payment method " + instrumentID + " is already attached",
			}
		}
	}

	if _, err := m.gw.AttachPaymentMethod(ctx, instrumentID, &stripeapi.PaymentMethodAttachParams{
		Customer: stripeapi.String(customerID),
	}); err != nil {
		return gatewayError(op, customerID, err)
	}
	if _, err := m.gw.UpdateCustomer(ctx, customerID, &stripeapi.CustomerParams{
		InvoiceSettings: &stripeapi.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripeapi.String(instrumentID),
		},
	}); err != nil {
		log.Warnw("payment method attached but not set as default",
			"customerId", customerID, "paymentMethodId", instrumentID)
		e := gatewayError(op, customerID, err).(*Error)
		e.Message = "payment method attached but could not be set as default"
		return e
	}
	log.Infow("payment method attached", "customerId", customerID, "paymentMethodId", instrumentID)
	return nil
}
