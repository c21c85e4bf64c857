package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.vocdoni.io/dvote/log"
)

// SignatureHeader carries the platform's signature of a webhook body.
const SignatureHeader = "Stripe-Signature"

// Outcome says what happened to one webhook delivery.
type Outcome string

const (
	OutcomeHandled   Outcome = "handled"
	OutcomeUnhandled Outcome = "unhandled"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// EventHandler handles one verified event. Handlers may run again for the
// same event when an earlier delivery failed, so they must be idempotent.
type EventHandler func(ctx context.Context, event *stripeapi.Event) error

// Dispatcher authenticates webhook deliveries and routes them by event type.
// A verified event of a type with no handler is acknowledged, not failed.
type Dispatcher struct {
	secret    string
	tolerance time.Duration

	mu       sync.RWMutex
	handlers map[stripeapi.EventType]EventHandler

	processed *MemoryEventStore
}

// NewDispatcher creates a dispatcher with the default handlers registered.
// Handled event ids are remembered for ttl.
func NewDispatcher(secret string, ttl time.Duration) *Dispatcher {
	d := &Dispatcher{
		secret:    secret,
		tolerance: webhook.DefaultTolerance,
		handlers:  make(map[stripeapi.EventType]EventHandler),
		processed: NewMemoryEventStore(ttl),
	}
	d.Register(stripeapi.EventTypePaymentIntentSucceeded, handlePaymentIntent)
	d.Register(stripeapi.EventTypePaymentIntentPaymentFailed, handlePaymentIntent)
	d.Register(stripeapi.EventTypePaymentIntentAmountCapturableUpdated, handlePaymentIntent)
	d.Register(stripeapi.EventTypeChargeRefunded, handleChargeRefunded)
	d.Register(stripeapi.EventTypeAccountUpdated, handleAccountUpdated)
	d.Register(stripeapi.EventTypeCustomerSubscriptionCreated, handleSubscription)
	d.Register(stripeapi.EventTypeCustomerSubscriptionUpdated, handleSubscription)
	d.Register(stripeapi.EventTypeCustomerSubscriptionDeleted, handleSubscription)
	d.Register(stripeapi.EventTypeInvoicePaymentSucceeded, handleInvoice)
	d.Register(stripeapi.EventTypeInvoicePaymentFailed, handleInvoice)
	d.Register(stripeapi.EventTypeCheckoutSessionCompleted, handleCheckoutCompleted)
	return d
}

// Register sets the handler of an event type, replacing any previous one.
func (d *Dispatcher) Register(eventType stripeapi.EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = handler
}

func (d *Dispatcher) handler(eventType stripeapi.EventType) (EventHandler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[eventType]
	return h, ok
}

// Verify authenticates the exact raw body against its signature header and
// parses it. Any mismatch, stale timestamp or malformed header is an
// ErrSignature.
func (d *Dispatcher) Verify(payload []byte, signature string) (*stripeapi.Event, error) {
	const op = "verifyWebhook"
	if d.secret == "" {
		return nil, &Error{Code: CodeSignature, Op: op, Message: "webhook signing secret is not configured"}
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, d.secret, webhook.ConstructEventOptions{
		Tolerance:                d.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, &Error{Code: CodeSignature, Op: op, Message: ErrSignature.Message, Err: err}
	}
	return &event, nil
}

// Dispatch runs the handler registered for the event type, if any.
func (d *Dispatcher) Dispatch(ctx context.Context, event *stripeapi.Event) (Outcome, error) {
	h, ok := d.handler(event.Type)
	if !ok {
		log.Debugw("webhook event type not handled, acknowledging", "type", event.Type, "eventId", event.ID)
		return OutcomeUnhandled, nil
	}
	if err := h(ctx, event); err != nil {
		return OutcomeFailed, &Error{Code: CodeHandler, Op: string(event.Type), Subject: event.ID,
			Message: ErrHandler.Message, Err: err}
	}
	return OutcomeHandled, nil
}

// HandleWebhook verifies, deduplicates and dispatches one delivery. An event
// is remembered only once its handler succeeded; a handler failure is
// returned so the platform delivers the event again.
func (d *Dispatcher) HandleWebhook(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	event, err := d.Verify(payload, signature)
	if err != nil {
		webhookEvents.WithLabelValues("", string(OutcomeRejected)).Inc()
		log.Warnw("webhook rejected", "error", err.Error())
		return OutcomeRejected, err
	}
	if d.processed.EventExists(event.ID) {
		webhookEvents.WithLabelValues(string(event.Type), string(OutcomeDuplicate)).Inc()
		log.Debugw("webhook event already processed, skipping", "eventId", event.ID, "type", event.Type)
		return OutcomeDuplicate, nil
	}

	outcome, err := d.Dispatch(ctx, event)
	webhookEvents.WithLabelValues(string(event.Type), string(outcome)).Inc()
	if err != nil {
		log.Errorw(err, fmt.Sprintf("webhook handler failed for event %s", event.ID))
		return outcome, err
	}
	d.processed.MarkProcessed(event.ID)
	return outcome, nil
}

// Close releases the dispatcher resources.
func (d *Dispatcher) Close() {
	d.processed.Close()
}

func decodeObject(event *stripeapi.Event, into any) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("event %s has no data object", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, into); err != nil {
		return fmt.Errorf("cannot decode %s object: %w", event.Type, err)
	}
	return nil
}

func handlePaymentIntent(_ context.Context, event *stripeapi.Event) error {
	var intent stripeapi.PaymentIntent
	if err := decodeObject(event, &intent); err != nil {
		return err
	}
	kv := []any{"eventId", event.ID, "paymentIntentId", intent.ID, "status", intent.Status,
		"amount", intent.Amount, "purpose", intent.Metadata[MetadataPurpose]}
	switch event.Type {
	case stripeapi.EventTypePaymentIntentSucceeded:
		log.Infow("payment succeeded", append(kv, "amountReceived", intent.AmountReceived)...)
	case stripeapi.EventTypePaymentIntentAmountCapturableUpdated:
		log.Infow("escrow payment authorized, awaiting capture",
			append(kv, "amountCapturable", intent.AmountCapturable)...)
	default:
		if intent.LastPaymentError != nil {
			kv = append(kv, "reason", intent.LastPaymentError.Msg)
		}
		log.Warnw("payment failed", kv...)
	}
	return nil
}

func handleChargeRefunded(_ context.Context, event *stripeapi.Event) error {
	var charge stripeapi.Charge
	if err := decodeObject(event, &charge); err != nil {
		return err
	}
	log.Infow("charge refunded", "eventId", event.ID, "chargeId", charge.ID,
		"amountRefunded", charge.AmountRefunded, "fully", charge.Refunded)
	return nil
}

func handleAccountUpdated(_ context.Context, event *stripeapi.Event) error {
	var account stripeapi.Account
	if err := decodeObject(event, &account); err != nil {
		return err
	}
	status := statusOf(&account)
	log.Infow("connected account updated", "eventId", event.ID, "accountId", account.ID,
		"isValid", status.IsValid, "isEnabled", status.IsEnabled, "needsIdCard", status.NeedsIDCard)
	return nil
}

func handleSubscription(_ context.Context, event *stripeapi.Event) error {
	var sub stripeapi.Subscription
	if err := decodeObject(event, &sub); err != nil {
		return err
	}
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	log.Infow("subscription changed", "eventId", event.ID, "type", event.Type, "subscriptionId", sub.ID,
		"customerId", customerID, "status", sub.Status, "cancelAtPeriodEnd", sub.CancelAtPeriodEnd)
	return nil
}

func handleInvoice(_ context.Context, event *stripeapi.Event) error {
	var invoice stripeapi.Invoice
	if err := decodeObject(event, &invoice); err != nil {
		return err
	}
	kv := []any{"eventId", event.ID, "invoiceId", invoice.ID, "amountDue", invoice.AmountDue,
		"amountPaid", invoice.AmountPaid}
	if event.Type == stripeapi.EventTypeInvoicePaymentFailed {
		log.Warnw("invoice payment failed", append(kv, "attempts", invoice.AttemptCount)...)
		return nil
	}
	log.Infow("invoice paid", kv...)
	return nil
}

func handleCheckoutCompleted(_ context.Context, event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := decodeObject(event, &session); err != nil {
		return err
	}
	log.Infow("checkout session completed", "eventId", event.ID, "sessionId", session.ID,
		"mode", session.Mode, "paymentStatus", session.PaymentStatus)
	return nil
}
