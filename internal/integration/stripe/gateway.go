package stripe

import (
	"context"
	"time"

	"github.com/keygate/keygate/internal/domain/billing"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// Gateway implements billing.Gateway against the Stripe API.
type Gateway struct {
	client *Client
	logger *logger.Logger
}

func NewGateway(client *Client, logger *logger.Logger) *Gateway {
	return &Gateway{
		client: client,
		logger: logger,
	}
}

var _ billing.Gateway = (*Gateway)(nil)

func (g *Gateway) GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	params := &stripe.SubscriptionRetrieveParams{
		Expand: []*string{
			stripe.String("customer"),
		},
	}

	stripeSub, err := g.client.API().V1Subscriptions.Retrieve(ctx, subscriptionID, params)
	if err != nil {
		// A malformed id and an absent id are deliberately indistinguishable
		// to the caller.
		g.logger.Warnw("failed to retrieve subscription from Stripe",
			"error", err,
			"subscription_id", subscriptionID,
		)
		return nil, ierr.NewError("subscription not found").
			WithHint("No subscription exists for the given identifier").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrNotFound)
	}

	return mapSubscription(stripeSub), nil
}

func (g *Gateway) ListCustomersByEmail(ctx context.Context, email string) ([]*billing.Customer, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}

	var customers []*billing.Customer
	for stripeCustomer, err := range g.client.API().V1Customers.List(ctx, params) {
		if err != nil {
			return nil, g.providerError(err, "failed to list customers from Stripe", map[string]interface{}{
				"email": email,
			})
		}
		customers = append(customers, &billing.Customer{
			ID:    stripeCustomer.ID,
			Email: stripeCustomer.Email,
		})
	}

	return customers, nil
}

func (g *Gateway) ListSubscriptionsByCustomer(ctx context.Context, customerID string) ([]*billing.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}

	var subs []*billing.Subscription
	for stripeSub, err := range g.client.API().V1Subscriptions.List(ctx, params) {
		if err != nil {
			return nil, g.providerError(err, "failed to list subscriptions from Stripe", map[string]interface{}{
				"customer_id": customerID,
			})
		}
		subs = append(subs, mapSubscription(stripeSub))
	}

	return subs, nil
}

func (g *Gateway) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*billing.Subscription, error) {
	params := &stripe.SubscriptionUpdateParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}

	stripeSub, err := g.client.API().V1Subscriptions.Update(ctx, subscriptionID, params)
	if err != nil {
		return nil, g.providerError(err, "failed to update subscription in Stripe", map[string]interface{}{
			"subscription_id":      subscriptionID,
			"cancel_at_period_end": cancel,
		})
	}

	g.logger.Infow("updated cancel_at_period_end in Stripe",
		"subscription_id", subscriptionID,
		"cancel_at_period_end", cancel,
	)

	return mapSubscription(stripeSub), nil
}

func (g *Gateway) CancelSubscriptionNow(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	stripeSub, err := g.client.API().V1Subscriptions.Cancel(ctx, subscriptionID, &stripe.SubscriptionCancelParams{})
	if err != nil {
		return nil, g.providerError(err, "failed to cancel subscription in Stripe", map[string]interface{}{
			"subscription_id": subscriptionID,
		})
	}

	g.logger.Infow("canceled subscription immediately in Stripe",
		"subscription_id", subscriptionID,
	)

	return mapSubscription(stripeSub), nil
}

func (g *Gateway) LatestPaidInvoice(ctx context.Context, subscriptionID string) (*billing.Invoice, error) {
	params := &stripe.InvoiceListParams{
		Subscription: stripe.String(subscriptionID),
		Status:       stripe.String(string(stripe.InvoiceStatusPaid)),
	}
	params.Limit = stripe.Int64(1)
	params.AddExpand("data.payments")

	// Stripe lists invoices most recent first.
	for stripeInvoice, err := range g.client.API().V1Invoices.List(ctx, params) {
		if err != nil {
			return nil, g.providerError(err, "failed to list invoices from Stripe", map[string]interface{}{
				"subscription_id": subscriptionID,
			})
		}
		return mapInvoice(stripeInvoice, subscriptionID), nil
	}

	return nil, ierr.NewError("no paid invoice found").
		WithHint("The subscription has never been charged").
		WithReportableDetails(map[string]interface{}{
			"subscription_id": subscriptionID,
		}).
		Mark(ierr.ErrNotFound)
}

func (g *Gateway) CreateRefund(ctx context.Context, params billing.RefundParams) (*billing.Refund, error) {
	createParams := &stripe.RefundCreateParams{
		Reason:   stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
		Metadata: params.Metadata,
	}
	if params.ChargeID != "" {
		createParams.Charge = stripe.String(params.ChargeID)
	} else if params.PaymentIntentID != "" {
		createParams.PaymentIntent = stripe.String(params.PaymentIntentID)
	} else {
		return nil, ierr.NewError("refund target missing").
			WithHint("A charge or payment intent is required to issue a refund").
			Mark(ierr.ErrInvalidOperation)
	}

	stripeRefund, err := g.client.API().V1Refunds.Create(ctx, createParams)
	if err != nil {
		return nil, g.providerError(err, "failed to create refund in Stripe", map[string]interface{}{
			"charge_id":         params.ChargeID,
			"payment_intent_id": params.PaymentIntentID,
		})
	}

	refund := &billing.Refund{
		ID:       stripeRefund.ID,
		Amount:   stripeRefund.Amount,
		Currency: string(stripeRefund.Currency),
		Reason:   params.Reason,
	}
	if stripeRefund.Charge != nil {
		refund.ChargeID = stripeRefund.Charge.ID
	}

	g.logger.Infow("created refund in Stripe",
		"refund_id", refund.ID,
		"charge_id", refund.ChargeID,
		"amount", refund.Amount,
		"currency", refund.Currency,
	)

	return refund, nil
}

// providerError classifies a Stripe API failure: resource_missing becomes a
// not-found outcome, everything else a provider error.
func (g *Gateway) providerError(err error, msg string, details map[string]interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["error"] = err.Error()

	var stripeErr *stripe.Error
	if ierr.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return ierr.WithError(err).
			WithHint("The requested resource does not exist at the payment provider").
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}

	g.logger.Errorw(msg, "error", err)
	return ierr.WithError(err).
		WithHint("The payment provider call failed").
		WithReportableDetails(details).
		Mark(ierr.ErrProvider)
}

func mapSubscription(stripeSub *stripe.Subscription) *billing.Subscription {
	sub := &billing.Subscription{
		ID:                stripeSub.ID,
		Status:            types.SubscriptionStatus(stripeSub.Status),
		CreatedAt:         time.Unix(stripeSub.Created, 0).UTC(),
		CancelAtPeriodEnd: stripeSub.CancelAtPeriodEnd,
	}

	// Stripe reports the billing period on the subscription items.
	if stripeSub.Items != nil && len(stripeSub.Items.Data) > 0 {
		sub.CurrentPeriodEnd = time.Unix(stripeSub.Items.Data[0].CurrentPeriodEnd, 0).UTC()
	}

	if stripeSub.TrialEnd != 0 {
		trialEnd := time.Unix(stripeSub.TrialEnd, 0).UTC()
		sub.TrialEnd = &trialEnd
	}

	if stripeSub.Customer != nil {
		sub.CustomerID = stripeSub.Customer.ID
		sub.CustomerEmail = stripeSub.Customer.Email
	}

	return sub
}

func mapInvoice(stripeInvoice *stripe.Invoice, subscriptionID string) *billing.Invoice {
	invoice := &billing.Invoice{
		ID:             stripeInvoice.ID,
		SubscriptionID: subscriptionID,
		AmountPaid:     stripeInvoice.AmountPaid,
		Currency:       string(stripeInvoice.Currency),
		CreatedAt:      time.Unix(stripeInvoice.Created, 0).UTC(),
	}

	if stripeInvoice.Payments != nil && len(stripeInvoice.Payments.Data) > 0 {
		payment := stripeInvoice.Payments.Data[0].Payment
		if payment != nil {
			if payment.Charge != nil {
				invoice.ChargeID = payment.Charge.ID
			}
			if payment.PaymentIntent != nil {
				invoice.PaymentIntentID = payment.PaymentIntent.ID
			}
		}
	}

	return invoice
}
