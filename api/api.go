// Package api provides the HTTP API of the payments backend
//
//	@title						Payments API
//	@version					1.0
//	@description				Payment orchestration over the Stripe platform
//
//	@host						localhost:8080
//	@BasePath					/
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the operator JWT token.
//
//	@tag.name					customers
//	@tag.description			Customers and payment instruments
//
//	@tag.name					subscriptions
//	@tag.description			Subscriptions, prices, checkout and portal
//
//	@tag.name					charges
//	@tag.description			Immediate and escrow charges
//
//	@tag.name					connect
//	@tag.description			Marketplace connected accounts
//
//	@tag.name					stats
//	@tag.description			Financial statistics
//
//	@tag.name					webhook
//	@tag.description			Platform event notifications
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vocdoni/payments-backend/payments"
	"github.com/vocdoni/payments-backend/validator"
	"go.vocdoni.io/dvote/log"
)

// FallbackLister lists the recorded soft-failure fallbacks, newest first.
type FallbackLister interface {
	Fallbacks(ctx context.Context, kind payments.FallbackKind, limit int64) ([]*payments.Fallback, error)
}

type Config struct {
	Host string
	Port int
	// Secret signs the operator tokens. When empty the stats and ops routes
	// are left unprotected.
	Secret      string
	FrontendURL string
	Service     *payments.Service
	// Audit is optional, without it /ops/fallbacks answers 503.
	Audit FallbackLister
}

// API type represents the API HTTP server.
type API struct {
	auth        *jwtauth.JWTAuth
	host        string
	port        int
	router      *chi.Mux
	frontendURL string
	service     *payments.Service
	audit       FallbackLister
	validator   *validator.Validator
	server      *http.Server
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) *API {
	if conf == nil || conf.Service == nil {
		return nil
	}
	a := &API{
		host:        conf.Host,
		port:        conf.Port,
		frontendURL: conf.FrontendURL,
		service:     conf.Service,
		audit:       conf.Audit,
		validator:   validator.New(),
	}
	if conf.Secret != "" {
		a.auth = jwtauth.New("HS256", []byte(conf.Secret), nil)
	}
	if a.frontendURL == "" {
		a.frontendURL = conf.Service.Config().FrontendURL
	}
	return a
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.host, a.port),
		Handler:           a.initRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (a *API) Stop(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Router returns the HTTP handler with every route, building it if needed.
func (a *API) Router() http.Handler {
	if a.router == nil {
		return a.initRouter()
	}
	return a.router
}

// validated returns the middleware that decodes the request body into a
// fresh request model and rejects it unless it validates. Handlers read the
// decoded body back with validator.Model.
func (a *API) validated(model any) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		a.validator.AddModelMiddleware(model),
		a.validator.InputValidator,
	}
}

// router creates the router with all the routes and middleware.
func (a *API) initRouter() http.Handler {
	// Create the router with a basic middleware stack
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{a.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	r.Use(middleware.Timeout(45 * time.Second))

	// operator routes
	r.Group(func(r chi.Router) {
		if a.auth != nil {
			// seek, verify and validate JWT tokens
			r.Use(jwtauth.Verifier(a.auth))
			// only operators get through
			r.Use(a.operatorAuthenticator)
		} else {
			log.Warnw("no API secret configured, stats and ops routes are public")
		}
		log.Infow("new route", "method", "GET", "path", statsCustomersEndpoint)
		r.Get(statsCustomersEndpoint, a.customerStatsHandler)
		log.Infow("new route", "method", "GET", "path", statsSubscribersEndpoint)
		r.Get(statsSubscribersEndpoint, a.subscriberStatsHandler)
		log.Infow("new route", "method", "GET", "path", statsPaymentsEndpoint)
		r.Get(statsPaymentsEndpoint, a.paymentStatsHandler)
		log.Infow("new route", "method", "POST", "path", statsRevenueEndpoint)
		r.With(a.validated(RevenueRequest{})...).
			Post(statsRevenueEndpoint, a.totalRevenueHandler)
		log.Infow("new route", "method", "GET", "path", opsFallbacksEndpoint)
		r.Get(opsFallbacksEndpoint, a.fallbacksHandler)
	})

	// public routes
	r.Group(func(r chi.Router) {
		r.Get(pingEndpoint, func(w http.ResponseWriter, _ *http.Request) {
			if _, err := w.Write([]byte(".")); err != nil {
				log.Warnw("failed to write ping response", "error", err)
			}
		})
		log.Infow("new route", "method", "GET", "path", metricsEndpoint)
		r.Handle(metricsEndpoint, promhttp.Handler())

		// customers
		log.Infow("new route", "method", "POST", "path", customersEndpoint)
		r.With(a.validated(CustomerRequest{})...).
			Post(customersEndpoint, a.createCustomerHandler)
		log.Infow("new route", "method", "POST", "path", customerAttachEndpoint)
		r.With(a.validated(AttachPaymentRequest{})...).
			Post(customerAttachEndpoint, a.attachPaymentMethodHandler)

		// subscriptions and prices
		log.Infow("new route", "method", "POST", "path", subscriptionsEndpoint)
		r.With(a.validated(SubscriptionRequest{})...).
			Post(subscriptionsEndpoint, a.createSubscriptionHandler)
		log.Infow("new route", "method", "POST", "path", subscriptionCancelEndpoint)
		r.Post(subscriptionCancelEndpoint, a.cancelSubscriptionHandler)
		log.Infow("new route", "method", "POST", "path", pricesEndpoint)
		r.With(a.validated(PriceRequest{})...).
			Post(pricesEndpoint, a.createPriceHandler)

		// checkout and portal
		log.Infow("new route", "method", "POST", "path", checkoutSessionsEndpoint)
		r.With(a.validated(CheckoutRequest{})...).
			Post(checkoutSessionsEndpoint, a.createCheckoutSessionHandler)
		log.Infow("new route", "method", "GET", "path", checkoutSessionEndpoint)
		r.Get(checkoutSessionEndpoint, a.checkoutSessionHandler)
		log.Infow("new route", "method", "POST", "path", portalEndpoint)
		r.With(a.validated(PortalRequest{})...).
			Post(portalEndpoint, a.createPortalSessionHandler)

		// charges
		log.Infow("new route", "method", "POST", "path", chargeEndpoint)
		r.With(a.validated(ChargeRequest{})...).
			Post(chargeEndpoint, a.chargeHandler)
		log.Infow("new route", "method", "POST", "path", escrowServicesEndpoint)
		r.With(a.validated(EscrowRequest{})...).
			Post(escrowServicesEndpoint, a.escrowHandler(payments.PurposeServiceBooking))
		log.Infow("new route", "method", "POST", "path", escrowDeliveriesEndpoint)
		r.With(a.validated(EscrowRequest{})...).
			Post(escrowDeliveriesEndpoint, a.escrowHandler(payments.PurposeDeliveryPayment))
		log.Infow("new route", "method", "POST", "path", escrowCaptureEndpoint)
		r.Post(escrowCaptureEndpoint, a.captureEscrowHandler)

		// connected accounts
		log.Infow("new route", "method", "POST", "path", connectExpressEndpoint)
		r.Post(connectExpressEndpoint, a.createExpressAccountHandler)
		log.Infow("new route", "method", "POST", "path", connectCustomEndpoint)
		r.With(a.validated(CustomAccountRequest{})...).
			Post(connectCustomEndpoint, a.createCustomAccountHandler)
		log.Infow("new route", "method", "GET", "path", connectStatusEndpoint)
		r.Get(connectStatusEndpoint, a.accountStatusHandler)
		log.Infow("new route", "method", "POST", "path", connectLinkEndpoint)
		r.Post(connectLinkEndpoint, a.onboardingLinkHandler)
		log.Infow("new route", "method", "POST", "path", connectTransferEndpoint)
		r.With(a.validated(TransferRequest{})...).
			Post(connectTransferEndpoint, a.transferHandler)

		// webhook, the body must reach the handler untouched
		log.Infow("new route", "method", "POST", "path", webhookEndpoint)
		r.Post(webhookEndpoint, a.webhookHandler)
	})
	a.router = r
	return r
}
