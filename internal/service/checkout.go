package service

import (
	"context"

	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/domain/billing"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/logger"
)

// SessionResolution is the state of a checkout session as seen by callers
// polling for completion.
type SessionResolution struct {
	Pending      bool
	Session      *billing.CheckoutSession
	Subscription *billing.Subscription
}

// CheckoutService creates purchase sessions and reconciles completed ones
// into subscriptions.
type CheckoutService struct {
	gateway billing.Gateway
	cfg     *config.Configuration
	logger  *logger.Logger
}

func NewCheckoutService(gateway billing.Gateway, cfg *config.Configuration, logger *logger.Logger) *CheckoutService {
	return &CheckoutService{
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
	}
}

// CreateSession starts a provider-hosted checkout flow and returns the
// session id plus the redirect URL.
func (s *CheckoutService) CreateSession(ctx context.Context, email, successURL, cancelURL string) (*billing.CheckoutSession, error) {
	if successURL == "" {
		successURL = s.cfg.Stripe.SuccessURL
	}
	if cancelURL == "" {
		cancelURL = s.cfg.Stripe.CancelURL
	}
	if successURL == "" || cancelURL == "" {
		return nil, ierr.NewError("checkout return urls not configured").
			WithHint("Success and cancel URLs are required to start a checkout session").
			Mark(ierr.ErrInvalidOperation)
	}

	return s.gateway.CreateCheckoutSession(ctx, billing.CheckoutParams{
		CustomerEmail: email,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
	})
}

// Resolve reports whether a session has completed into a subscription.
// Safe to call repeatedly: purely a read against the provider.
func (s *CheckoutService) Resolve(ctx context.Context, sessionID string) (*SessionResolution, error) {
	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case billing.CheckoutSessionStatusOpen:
		return &SessionResolution{Pending: true, Session: session}, nil
	case billing.CheckoutSessionStatusExpired:
		return nil, ierr.NewError("checkout session expired").
			WithHint("The checkout session expired before completing").
			WithReportableDetails(map[string]interface{}{
				"session_id": sessionID,
			}).
			Mark(ierr.ErrNotFound)
	}

	if session.SubscriptionID == "" {
		return nil, ierr.NewError("completed session has no subscription").
			WithHint("The checkout session completed without creating a subscription").
			WithReportableDetails(map[string]interface{}{
				"session_id": sessionID,
			}).
			Mark(ierr.ErrNotFound)
	}

	sub, err := s.gateway.GetSubscription(ctx, session.SubscriptionID)
	if err != nil {
		return nil, err
	}

	return &SessionResolution{
		Session:      session,
		Subscription: sub,
	}, nil
}

// ResolveSession reconciles a completed session into its subscription id.
// Used by the webhook ingestor; a still-pending session is an error here
// because a completion event implies the session finished.
func (s *CheckoutService) ResolveSession(ctx context.Context, sessionID string) (string, error) {
	resolution, err := s.Resolve(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if resolution.Pending {
		return "", ierr.NewError("checkout session still pending").
			WithHint("The checkout session has not completed yet").
			WithReportableDetails(map[string]interface{}{
				"session_id": sessionID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	s.logger.Infow("checkout session resolved to subscription",
		"session_id", sessionID,
		"subscription_id", resolution.Subscription.ID,
		"status", resolution.Subscription.Status,
	)

	return resolution.Subscription.ID, nil
}
