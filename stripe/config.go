package stripe

import (
	"fmt"
	"time"
)

// DefaultTimeout bounds a single round trip to the platform API.
const DefaultTimeout = 30 * time.Second

// Config holds what the adapter needs to open its authenticated channel.
type Config struct {
	APIKey string `yaml:"api_key" json:"api_key"`
	// BackendURL overrides the platform API base URL, used against
	// stripe-mock and in tests.
	BackendURL string        `yaml:"backend_url" json:"backend_url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// Validate checks the configuration and fills the defaults.
func (c *Config) Validate() error {
	if c == nil || c.APIKey == "" {
		return fmt.Errorf("stripe API secret key is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
