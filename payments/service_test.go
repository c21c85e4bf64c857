package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/payments-backend/internal/testutil"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(c *qt.C, conf *Config) (*Service, *testutil.Gateway) {
	gw := testutil.NewGateway()
	if conf == nil {
		conf = &Config{}
	}
	if conf.Now == nil {
		conf.Now = func() time.Time { return testNow }
	}
	svc, err := New(gw, conf)
	c.Assert(err, qt.IsNil)
	c.Cleanup(svc.Close)
	return svc, gw
}

// memoryRecorder keeps recorded fallbacks in memory.
type memoryRecorder struct {
	mu        sync.Mutex
	fallbacks []*Fallback
}

func (r *memoryRecorder) RecordFallback(_ context.Context, fb *Fallback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, fb)
	return nil
}

func TestNewRequiresGateway(t *testing.T) {
	c := qt.New(t)
	_, err := New(nil, nil)
	c.Assert(err, qt.IsNotNil)
}

func TestConfigDefaults(t *testing.T) {
	c := qt.New(t)
	svc, _ := newTestService(c, &Config{Currency: "EUR", FrontendURL: "https://app.example.org/"})
	conf := svc.Config()
	c.Assert(conf.Country, qt.Equals, DefaultCountry)
	c.Assert(conf.Currency, qt.Equals, "eur")
	c.Assert(conf.FrontendURL, qt.Equals, "https://app.example.org")
	c.Assert(conf.CallTimeout, qt.Equals, DefaultCallTimeout)
	c.Assert(conf.RefundLookupWorkers, qt.Equals, DefaultRefundLookupWorkers)
}

func TestCallTimeoutIsApplied(t *testing.T) {
	c := qt.New(t)
	svc, _ := newTestService(c, &Config{CallTimeout: time.Second})
	ctx, cancel := svc.Customers.call(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	c.Assert(ok, qt.IsTrue)
	c.Assert(time.Until(deadline) <= time.Second, qt.IsTrue)
}
