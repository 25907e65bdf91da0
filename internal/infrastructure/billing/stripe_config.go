package billing

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds configuration for the Stripe subscription lookup
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`

	// ProductID is the Stripe product a store must be subscribed to
	ProductID string `json:"product_id" mapstructure:"product_id"`

	// APIURL overrides the API endpoint, e.g. for stripe-mock
	APIURL string `json:"api_url" mapstructure:"api_url"`
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if !strings.HasPrefix(c.SecretKey, "sk_") && !strings.HasPrefix(c.SecretKey, "rk_") {
		return fmt.Errorf("stripe: secret key must be a secret or restricted key")
	}
	if c.ProductID == "" {
		return fmt.Errorf("stripe: product id is required")
	}
	return nil
}

// InitStripeClient initializes the Stripe client with the configured API key
// and, when set, points the API backend at APIURL.
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.SecretKey
	if c.APIURL != "" {
		stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL: stripe.String(c.APIURL),
		}))
	}
}
