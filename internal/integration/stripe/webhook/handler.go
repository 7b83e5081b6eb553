package webhook

import (
	"context"
	"encoding/json"

	ierr "github.com/keygate/keygate/internal/errors"
	stripeclient "github.com/keygate/keygate/internal/integration/stripe"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/types"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SessionResolver reconciles a completed checkout session into a
// subscription. Resolution is idempotent so replayed webhook deliveries are
// harmless.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (subscriptionID string, err error)
}

// Handler verifies and dispatches inbound Stripe webhook events.
type Handler struct {
	client   *stripeclient.Client
	resolver SessionResolver
	logger   *logger.Logger
}

// NewHandler creates a new Stripe webhook handler
func NewHandler(client *stripeclient.Client, resolver SessionResolver, logger *logger.Logger) *Handler {
	return &Handler{
		client:   client,
		resolver: resolver,
		logger:   logger,
	}
}

// ParseEvent verifies the payload signature against the shared webhook
// secret and parses the event. Verification failure is fatal for the
// request: the payload must not be processed.
func (h *Handler) ParseEvent(payload []byte, signature string) (*stripeapi.Event, error) {
	secret := h.client.WebhookSecret()
	if secret == "" {
		return nil, ierr.NewError("webhook secret not configured").
			WithHint("Webhook secret must be configured to accept provider events").
			Mark(ierr.ErrSystem)
	}

	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, options)
	if err != nil {
		h.logger.Errorw("Stripe webhook verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

// HandleEvent dispatches a verified event. Errors here are logged by the
// caller and never turn into a non-2xx response: the provider retries on
// failure responses, and retry-storming on transient internal errors helps
// nobody.
func (h *Handler) HandleEvent(ctx context.Context, event *stripeapi.Event) error {
	h.logger.Infow("processing Stripe webhook event",
		"event_id", event.ID,
		"event_type", event.Type,
	)

	switch types.ProviderEventType(event.Type) {
	case types.ProviderEventCheckoutSessionCompleted:
		return h.handleCheckoutSessionCompleted(ctx, event)
	case types.ProviderEventSubscriptionUpdated, types.ProviderEventSubscriptionDeleted:
		return h.handleSubscriptionChanged(ctx, event)
	default:
		// Unknown event types are acknowledged and ignored so the provider
		// can add new ones without breaking us.
		h.logger.Infow("unhandled Stripe webhook event type", "type", event.Type)
		return nil
	}
}

func (h *Handler) handleCheckoutSessionCompleted(ctx context.Context, event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Errorw("failed to parse checkout session from webhook", "error", err)
		return ierr.WithError(err).
			WithHint("Invalid checkout session data in webhook").
			Mark(ierr.ErrValidation)
	}

	subscriptionID, err := h.resolver.ResolveSession(ctx, session.ID)
	if err != nil {
		h.logger.Errorw("failed to resolve checkout session from webhook",
			"error", err,
			"session_id", session.ID,
			"event_id", event.ID,
		)
		return err
	}

	h.logger.Infow("resolved checkout session from webhook",
		"session_id", session.ID,
		"subscription_id", subscriptionID,
		"event_id", event.ID,
	)

	return nil
}

// handleSubscriptionChanged observes provider-driven status transitions.
// Nothing is persisted locally, so the observation is log-only.
func (h *Handler) handleSubscriptionChanged(ctx context.Context, event *stripeapi.Event) error {
	var sub stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Errorw("failed to parse subscription from webhook", "error", err)
		return ierr.WithError(err).
			WithHint("Invalid subscription data in webhook").
			Mark(ierr.ErrValidation)
	}

	h.logger.Infow("observed subscription change from provider",
		"event_type", event.Type,
		"subscription_id", sub.ID,
		"status", sub.Status,
		"cancel_at_period_end", sub.CancelAtPeriodEnd,
	)

	return nil
}
