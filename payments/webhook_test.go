package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func eventPayload(id string, eventType stripeapi.EventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"api_version":"2024-09-30.acacia","data":{"object":%s}}`,
		id, eventType, object))
}

func sign(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header
}

func TestWebhookVerification(t *testing.T) {
	c := qt.New(t)
	d := NewDispatcher(testWebhookSecret, time.Hour)
	c.Cleanup(d.Close)
	payload := eventPayload("evt_1", stripeapi.EventTypePaymentIntentSucceeded, `{"id":"pi_1","object":"payment_intent"}`)

	c.Run("valid signature", func(c *qt.C) {
		event, err := d.Verify(payload, sign(payload, testWebhookSecret))
		c.Assert(err, qt.IsNil)
		c.Assert(event.ID, qt.Equals, "evt_1")
		c.Assert(event.Type, qt.Equals, stripeapi.EventTypePaymentIntentSucceeded)
	})

	rejected := map[string]func() ([]byte, string){
		"wrong secret": func() ([]byte, string) { return payload, sign(payload, "whsec_other") },
		"tampered body": func() ([]byte, string) {
			header := sign(payload, testWebhookSecret)
			tampered := eventPayload("evt_1", stripeapi.EventTypePaymentIntentSucceeded, `{"id":"pi_2","object":"payment_intent"}`)
			return tampered, header
		},
		"malformed header": func() ([]byte, string) { return payload, "garbage" },
		"missing header":   func() ([]byte, string) { return payload, "" },
		"stale timestamp": func() ([]byte, string) {
			return payload, webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
				Payload: payload, Secret: testWebhookSecret, Timestamp: time.Now().Add(-time.Hour),
			}).Header
		},
	}
	for name, build := range rejected {
		c.Run(name, func(c *qt.C) {
			body, header := build()
			outcome, err := d.HandleWebhook(context.Background(), body, header)
			c.Assert(outcome, qt.Equals, OutcomeRejected)
			c.Assert(errors.Is(err, ErrSignature), qt.IsTrue)
		})
	}

	c.Run("no secret configured", func(c *qt.C) {
		unset := NewDispatcher("", time.Hour)
		defer unset.Close()
		_, err := unset.Verify(payload, sign(payload, ""))
		c.Assert(errors.Is(err, ErrSignature), qt.IsTrue)
	})
}

func TestWebhookDispatch(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("unrecognized type is acknowledged", func(c *qt.C) {
		d := NewDispatcher(testWebhookSecret, time.Hour)
		defer d.Close()
		called := false
		d.Register(stripeapi.EventTypePaymentIntentSucceeded, func(context.Context, *stripeapi.Event) error {
			called = true
			return nil
		})
		payload := eventPayload("evt_2", "product.created", `{"id":"prod_1","object":"product"}`)
		outcome, err := d.HandleWebhook(ctx, payload, sign(payload, testWebhookSecret))
		c.Assert(err, qt.IsNil)
		c.Assert(outcome, qt.Equals, OutcomeUnhandled)
		c.Assert(called, qt.IsFalse)
	})

	c.Run("default handlers accept their events", func(c *qt.C) {
		d := NewDispatcher(testWebhookSecret, time.Hour)
		defer d.Close()
		events := map[stripeapi.EventType]string{
			stripeapi.EventTypePaymentIntentSucceeded:               `{"id":"pi_1","object":"payment_intent","amount":500,"metadata":{"purpose":"service_booking"}}`,
			stripeapi.EventTypePaymentIntentPaymentFailed:           `{"id":"pi_2","object":"payment_intent","last_payment_error":{"message":"declined"}}`,
			stripeapi.EventTypePaymentIntentAmountCapturableUpdated: `{"id":"pi_3","object":"payment_intent","amount_capturable":900}`,
			stripeapi.EventTypeChargeRefunded:                       `{"id":"ch_1","object":"charge","refunded":true,"amount_refunded":500}`,
			stripeapi.EventTypeAccountUpdated:                       `{"id":"acct_1","object":"account","details_submitted":true,"requirements":{"currently_due":["individual.verification.document"]}}`,
			stripeapi.EventTypeCustomerSubscriptionDeleted:          `{"id":"sub_1","object":"subscription","status":"canceled","customer":"cus_1"}`,
			stripeapi.EventTypeInvoicePaymentFailed:                 `{"id":"in_1","object":"invoice","amount_due":1000,"attempt_count":2}`,
			stripeapi.EventTypeCheckoutSessionCompleted:             `{"id":"cs_1","object":"checkout.session","mode":"subscription","payment_status":"paid"}`,
		}
		i := 0
		for eventType, object := range events {
			i++
			payload := eventPayload(fmt.Sprintf("evt_default_%d", i), eventType, object)
			outcome, err := d.HandleWebhook(ctx, payload, sign(payload, testWebhookSecret))
			c.Assert(err, qt.IsNil, qt.Commentf("event type %s", eventType))
			c.Assert(outcome, qt.Equals, OutcomeHandled)
		}
	})

	c.Run("handled once", func(c *qt.C) {
		d := NewDispatcher(testWebhookSecret, time.Hour)
		defer d.Close()
		calls := 0
		d.Register(stripeapi.EventTypeChargeRefunded, func(_ context.Context, event *stripeapi.Event) error {
			calls++
			return nil
		})
		payload := eventPayload("evt_3", stripeapi.EventTypeChargeRefunded, `{"id":"ch_1","object":"charge"}`)
		outcome, err := d.HandleWebhook(ctx, payload, sign(payload, testWebhookSecret))
		c.Assert(err, qt.IsNil)
		c.Assert(outcome, qt.Equals, OutcomeHandled)

		outcome, err = d.HandleWebhook(ctx, payload, sign(payload, testWebhookSecret))
		c.Assert(err, qt.IsNil)
		c.Assert(outcome, qt.Equals, OutcomeDuplicate)
		c.Assert(calls, qt.Equals, 1)
	})

	c.Run("handler failure is reported and not remembered", func(c *qt.C) {
		d := NewDispatcher(testWebhookSecret, time.Hour)
		defer d.Close()
		fail := true
		d.Register(stripeapi.EventTypeAccountUpdated, func(context.Context, *stripeapi.Event) error {
			if fail {
				return fmt.Errorf("downstream unavailable")
			}
			return nil
		})
		payload := eventPayload("evt_4", stripeapi.EventTypeAccountUpdated, `{"id":"acct_1","object":"account"}`)
		outcome, err := d.HandleWebhook(ctx, payload, sign(payload, testWebhookSecret))
		c.Assert(outcome, qt.Equals, OutcomeFailed)
		c.Assert(errors.Is(err, ErrHandler), qt.IsTrue)

		// the platform redelivers, this time it goes through
		fail = false
		outcome, err = d.HandleWebhook(ctx, payload, sign(payload, testWebhookSecret))
		c.Assert(err, qt.IsNil)
		c.Assert(outcome, qt.Equals, OutcomeHandled)
	})

	c.Run("undecodable object fails the handler", func(c *qt.C) {
		d := NewDispatcher(testWebhookSecret, time.Hour)
		defer d.Close()
		payload := eventPayload("evt_5", stripeapi.EventTypeChargeRefunded, `{"id":"ch_1","object":"charge","amount":"lots"}`)
		outcome, err := d.HandleWebhook(ctx, payload, sign(payload, testWebhookSecret))
		c.Assert(outcome, qt.Equals, OutcomeFailed)
		c.Assert(errors.Is(err, ErrHandler), qt.IsTrue)
	})
}

func TestMemoryEventStore(t *testing.T) {
	c := qt.New(t)
	store := NewMemoryEventStore(50 * time.Millisecond)
	defer store.Close()

	c.Assert(store.EventExists("evt_1"), qt.IsFalse)
	store.MarkProcessed("evt_1")
	c.Assert(store.EventExists("evt_1"), qt.IsTrue)
	c.Assert(store.Size(), qt.Equals, 1)

	time.Sleep(60 * time.Millisecond)
	c.Assert(store.EventExists("evt_1"), qt.IsFalse)
	store.expire()
	c.Assert(store.Size(), qt.Equals, 0)

	store.Close()
	store.Close()
}
