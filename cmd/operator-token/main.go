// operator-token prints a bearer token for the operator routes of the
// payments service.
package main

import (
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vocdoni/payments-backend/api"
	"go.vocdoni.io/dvote/log"
)

func main() {
	log.Init("info", "stdout", nil)
	flag.StringP("secret", "s", "", "operator token secret, the same the service runs with")
	flag.Duration("ttl", api.DefaultOperatorTokenTTL, "token lifetime")
	flag.Parse()
	viper.SetEnvPrefix("PAYMENTS")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()

	secret := viper.GetString("secret")
	if secret == "" {
		log.Fatal("secret is required")
	}
	token, expires, err := api.OperatorToken(secret, viper.GetDuration("ttl"), time.Now())
	if err != nil {
		log.Fatalf("could not create the token: %v", err)
	}
	log.Infow("operator token created", "expires", expires.Format(time.RFC3339))
	fmt.Println(token)
}
