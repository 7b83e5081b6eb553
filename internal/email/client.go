package email

import (
	"context"

	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/resend/resend-go/v2"
)

// Client wraps the Resend API. When disabled (no API key or switched off in
// config) every send is a logged no-op at the service layer, so callers
// never branch on delivery availability.
type Client struct {
	client      *resend.Client
	enabled     bool
	fromAddress string
	replyTo     string
}

// Config holds the email client configuration
type Config struct {
	Enabled     bool
	APIKey      string
	FromAddress string
	ReplyTo     string
}

// NewClient creates a new email client
func NewClient(cfg Config) *Client {
	if !cfg.Enabled || cfg.APIKey == "" {
		return &Client{enabled: false}
	}

	return &Client{
		client:      resend.NewClient(cfg.APIKey),
		enabled:     true,
		fromAddress: cfg.FromAddress,
		replyTo:     cfg.ReplyTo,
	}
}

// IsEnabled returns whether the email client is enabled
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// GetFromAddress returns the default from address
func (c *Client) GetFromAddress() string {
	return c.fromAddress
}

// Send delivers a single email and returns the provider message id.
func (c *Client) Send(ctx context.Context, from, to, subject, htmlContent, textContent string) (string, error) {
	if !c.enabled {
		return "", ierr.NewError("email client is disabled").
			WithHint("Email delivery is not configured").
			Mark(ierr.ErrInvalidOperation)
	}

	if from == "" {
		from = c.fromAddress
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlContent,
		Text:    textContent,
	}
	if c.replyTo != "" {
		params.ReplyTo = c.replyTo
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to send email").
			Mark(ierr.ErrSystem)
	}

	return sent.Id, nil
}
