package stripe

import (
	"context"

	"github.com/keygate/keygate/internal/domain/billing"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/stripe/stripe-go/v82"
)

func (g *Gateway) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	priceID := params.PriceID
	if priceID == "" {
		priceID = g.client.Config().PriceID
	}
	if priceID == "" {
		return nil, ierr.NewError("no price configured for checkout").
			WithHint("A Stripe price id is required to start a checkout session").
			Mark(ierr.ErrInvalidOperation)
	}

	createParams := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(params.SuccessURL),
		CancelURL:           stripe.String(params.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
	}
	if params.CustomerEmail != "" {
		createParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}

	session, err := g.client.API().V1CheckoutSessions.Create(ctx, createParams)
	if err != nil {
		return nil, g.providerError(err, "failed to create Stripe checkout session", map[string]interface{}{
			"price_id": priceID,
		})
	}

	g.logger.Infow("created Stripe checkout session",
		"session_id", session.ID,
		"price_id", priceID,
	)

	return mapCheckoutSession(session), nil
}

func (g *Gateway) GetCheckoutSession(ctx context.Context, sessionID string) (*billing.CheckoutSession, error) {
	params := &stripe.CheckoutSessionRetrieveParams{
		Expand: []*string{
			stripe.String("subscription"),
		},
	}

	session, err := g.client.API().V1CheckoutSessions.Retrieve(ctx, sessionID, params)
	if err != nil {
		return nil, g.providerError(err, "failed to retrieve Stripe checkout session", map[string]interface{}{
			"session_id": sessionID,
		})
	}

	return mapCheckoutSession(session), nil
}

func mapCheckoutSession(session *stripe.CheckoutSession) *billing.CheckoutSession {
	out := &billing.CheckoutSession{
		ID:            session.ID,
		URL:           session.URL,
		Status:        billing.CheckoutSessionStatus(session.Status),
		CustomerEmail: session.CustomerEmail,
	}
	if session.Subscription != nil {
		out.SubscriptionID = session.Subscription.ID
	}
	return out
}
