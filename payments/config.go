package payments

import (
	"strings"
	"time"
)

const (
	DefaultCountry             = "FR"
	DefaultCurrency            = "eur"
	DefaultFrontendURL         = "http://localhost:3000"
	DefaultCallTimeout         = 30 * time.Second
	DefaultRefundLookupWorkers = 8
	DefaultEventTTL            = 24 * time.Hour
)

// Config holds the business settings of the orchestration service.
type Config struct {
	// Country of the connected accounts created by the marketplace.
	Country string
	// Currency of immediate charges, transfers and prices.
	Currency string
	// FrontendURL is the base of the onboarding, checkout and portal return URLs.
	FrontendURL string
	// WebhookSecret is the shared signing secret of the webhook endpoint.
	// With no secret every delivery is rejected.
	WebhookSecret string
	// CallTimeout bounds every public operation, pagination included.
	CallTimeout time.Duration
	// RefundLookupWorkers bounds the concurrent refund lookups of PaymentStats.
	RefundLookupWorkers int
	// EventTTL is how long a handled webhook event id is remembered.
	EventTTL time.Duration
	// Recorder, when set, receives every soft-failure fallback.
	Recorder FallbackRecorder
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

func (c Config) withDefaults() *Config {
	if c.Country == "" {
		c.Country = DefaultCountry
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	c.Currency = strings.ToLower(c.Currency)
	if c.FrontendURL == "" {
		c.FrontendURL = DefaultFrontendURL
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.RefundLookupWorkers <= 0 {
		c.RefundLookupWorkers = DefaultRefundLookupWorkers
	}
	if c.EventTTL <= 0 {
		c.EventTTL = DefaultEventTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return &c
}
