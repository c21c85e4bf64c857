// Package payments holds the business rules of the payment orchestration
// layer: when and how to call the payment platform, how to walk its paginated
// collections, how to verify and route its webhooks and how to derive the
// financial statistics. The platform itself is reached only through Gateway.
package payments

import (
	"context"
	"fmt"
	"time"
)

// base is what every manager shares: the platform channel and the settings.
type base struct {
	gw   Gateway
	conf *Config
}

// call derives the per-operation context from the caller's one.
func (b *base) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.conf.CallTimeout)
}

func (b *base) now() time.Time {
	return b.conf.Now()
}

// Service is the orchestration facade. It composes the managers over one
// shared Gateway, built once at startup and passed in explicitly.
type Service struct {
	*Customers
	*Subscriptions
	*Charges
	*Accounts
	*Stats
	*Checkout

	Webhooks *Dispatcher
}

// New creates the orchestration service. conf may be nil to use the defaults.
func New(gw Gateway, conf *Config) (*Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("payments: a gateway is required")
	}
	if conf == nil {
		conf = &Config{}
	}
	b := base{gw: gw, conf: conf.withDefaults()}
	return &Service{
		Customers:     &Customers{b},
		Subscriptions: &Subscriptions{b},
		Charges:       &Charges{b},
		Accounts:      &Accounts{b},
		Stats:         &Stats{b},
		Checkout:      &Checkout{b},
		Webhooks:      NewDispatcher(b.conf.WebhookSecret, b.conf.EventTTL),
	}, nil
}

// Config returns the effective settings, defaults applied.
func (s *Service) Config() Config {
	return *s.Customers.conf
}

// Close releases the webhook dispatcher resources.
func (s *Service) Close() {
	s.Webhooks.Close()
}
