package billing

import "context"

// RefundParams describes one refund to issue. Exactly one of ChargeID or
// PaymentIntentID must be set.
type RefundParams struct {
	ChargeID        string
	PaymentIntentID string
	Reason          string
	Metadata        map[string]string
}

// CheckoutParams describes one purchase session to create.
type CheckoutParams struct {
	CustomerEmail string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

// Gateway is the payment provider surface the core needs. The provider is
// the sole source of truth; all methods are stateless reads or writes
// against it.
type Gateway interface {
	// GetSubscription retrieves one subscription by provider id. Any
	// retrieval failure, including a malformed id, is reported as not found.
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// ListCustomersByEmail returns customers whose email matches exactly.
	ListCustomersByEmail(ctx context.Context, email string) ([]*Customer, error)

	// ListSubscriptionsByCustomer returns all of a customer's subscriptions,
	// any status, most recent first.
	ListSubscriptionsByCustomer(ctx context.Context, customerID string) ([]*Subscription, error)

	// SetCancelAtPeriodEnd flips the pending-cancellation flag and returns
	// the updated subscription. Idempotent at the provider.
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*Subscription, error)

	// CancelSubscriptionNow ends the subscription immediately.
	CancelSubscriptionNow(ctx context.Context, subscriptionID string) (*Subscription, error)

	// LatestPaidInvoice returns the most recent paid invoice for the
	// subscription, or ErrNotFound when nothing was ever charged.
	LatestPaidInvoice(ctx context.Context, subscriptionID string) (*Invoice, error)

	// CreateRefund issues a refund against a charge or payment intent.
	CreateRefund(ctx context.Context, params RefundParams) (*Refund, error)

	// CreateCheckoutSession starts a provider-hosted purchase flow.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// GetCheckoutSession retrieves a session for idempotent polling.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}
