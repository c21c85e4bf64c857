package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vocdoni/payments-backend/api"
	"github.com/vocdoni/payments-backend/audit"
	"github.com/vocdoni/payments-backend/payments"
	"github.com/vocdoni/payments-backend/stripe"
	"go.vocdoni.io/dvote/log"
)

func main() {
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 8080, "listen port")
	flag.StringP("secret", "s", "", "operator token secret, protects the stats and ops routes when set")
	flag.String("stripeApiSecret", "", "Stripe API secret key")
	flag.String("stripeWebhookSecret", "", "Stripe webhook signing secret")
	flag.String("stripeBackendURL", "", "alternative Stripe API base URL, e.g. a stripe-mock instance")
	flag.String("frontendURL", payments.DefaultFrontendURL, "base URL of the onboarding, checkout and portal return pages")
	flag.String("country", payments.DefaultCountry, "country of the connected accounts")
	flag.String("currency", payments.DefaultCurrency, "currency of charges, transfers and prices")
	flag.Duration("callTimeout", payments.DefaultCallTimeout, "timeout of every payment operation")
	flag.Int("refundWorkers", payments.DefaultRefundLookupWorkers, "concurrent refund lookups of the payment statistics")
	flag.String("mongoURL", "", "The URL of the MongoDB server, enables the fallback audit log")
	flag.String("mongoDB", "payments", "The name of the MongoDB database")
	flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("PAYMENTS")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	log.Init(viper.GetString("logLevel"), "stdout", os.Stderr)
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	secret := viper.GetString("secret")
	frontendURL := viper.GetString("frontendURL")
	webhookSecret := viper.GetString("stripeWebhookSecret")
	if webhookSecret == "" {
		log.Warn("stripe webhook secret is not set, every webhook delivery will be rejected")
	}
	if secret == "" {
		log.Warn("operator secret is not set, stats and ops routes are not protected")
	}
	// create the Stripe client
	client, err := stripe.NewClient(&stripe.Config{
		APIKey:     viper.GetString("stripeApiSecret"),
		BackendURL: viper.GetString("stripeBackendURL"),
	})
	if err != nil {
		log.Fatalf("could not create the stripe client: %v", err)
	}
	conf := &payments.Config{
		Country:             viper.GetString("country"),
		Currency:            viper.GetString("currency"),
		FrontendURL:         frontendURL,
		WebhookSecret:       webhookSecret,
		CallTimeout:         viper.GetDuration("callTimeout"),
		RefundLookupWorkers: viper.GetInt("refundWorkers"),
	}
	// the audit log is optional
	var auditLog api.FallbackLister
	if mongoURL := viper.GetString("mongoURL"); mongoURL != "" {
		store, err := audit.New(mongoURL, viper.GetString("mongoDB"))
		if err != nil {
			log.Fatalf("could not create the MongoDB audit store: %v", err)
		}
		defer store.Close()
		conf.Recorder = store
		auditLog = store
	}
	service, err := payments.New(client, conf)
	if err != nil {
		log.Fatalf("could not create the payments service: %v", err)
	}
	defer service.Close()
	// create the local API server
	server := api.New(&api.Config{
		Host:        host,
		Port:        port,
		Secret:      secret,
		FrontendURL: frontendURL,
		Service:     service,
		Audit:       auditLog,
	})
	server.Start()
	log.Infow("server started", "host", host, "port", port)
	// wait until we are told to stop
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Warnw("error stopping the server", "error", err)
	}
}
