package stripe

import (
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/logger"
	"github.com/stripe/stripe-go/v82"
)

// Client handles Stripe API client setup and configuration. The secret key
// is fixed at construction time from the process configuration; switching
// between test and live mode means restarting with a different key.
type Client struct {
	cfg    *config.StripeConfig
	api    *stripe.Client
	logger *logger.Logger
}

// NewClient creates a new Stripe client from the process configuration
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	return &Client{
		cfg:    &cfg.Stripe,
		api:    stripe.NewClient(cfg.Stripe.SecretKey, nil),
		logger: logger,
	}
}

// API returns the configured Stripe SDK client
func (c *Client) API() *stripe.Client {
	return c.api
}

// WebhookSecret returns the shared secret used to verify inbound webhook
// signatures. Empty when webhooks are not configured.
func (c *Client) WebhookSecret() string {
	return c.cfg.WebhookSecret
}

// Config returns the Stripe section of the process configuration
func (c *Client) Config() *config.StripeConfig {
	return c.cfg
}
