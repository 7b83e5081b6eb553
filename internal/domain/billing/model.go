package billing

import (
	"time"

	"github.com/keygate/keygate/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription is the provider's recurring-billing record. It is never
// persisted locally: every instance is fetched fresh from the provider and
// discarded after the request.
type Subscription struct {
	ID                string
	Status            types.SubscriptionStatus
	CreatedAt         time.Time
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	TrialEnd          *time.Time
	CustomerID        string
	CustomerEmail     string
}

// Customer is the provider's account record owning zero or more
// subscriptions.
type Customer struct {
	ID    string
	Email string
}

// Invoice is a billing document attached to a subscription. ChargeID and
// PaymentIntentID identify the money movement a refund would reverse; either
// may be empty depending on how the invoice was paid.
type Invoice struct {
	ID              string
	SubscriptionID  string
	ChargeID        string
	PaymentIntentID string
	AmountPaid      int64 // minor currency units
	Currency        string
	CreatedAt       time.Time
}

// Refund records a reversal of one invoice's charge. Immutable once created;
// at most one is issued per cancellation-with-refund.
type Refund struct {
	ID       string
	Amount   int64 // minor currency units
	Currency string
	ChargeID string
	Reason   string
}

// AmountDecimal returns the refunded amount in major currency units.
func (r *Refund) AmountDecimal() decimal.Decimal {
	return decimal.NewFromInt(r.Amount).Div(decimal.NewFromInt(100))
}

// CheckoutSessionStatus is the lifecycle state of a purchase session.
type CheckoutSessionStatus string

const (
	CheckoutSessionStatusOpen     CheckoutSessionStatus = "open"
	CheckoutSessionStatusComplete CheckoutSessionStatus = "complete"
	CheckoutSessionStatusExpired  CheckoutSessionStatus = "expired"
)

// CheckoutSession is a provider-hosted purchase flow that reconciles into a
// subscription once completed.
type CheckoutSession struct {
	ID             string
	URL            string
	Status         CheckoutSessionStatus
	SubscriptionID string
	CustomerEmail  string
}
