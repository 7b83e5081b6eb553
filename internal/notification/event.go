package notification

import (
	"context"
	"time"

	"github.com/keygate/keygate/internal/types"
	"github.com/shopspring/decimal"
)

// LifecycleEvent is the administrative summary of one terminal lifecycle
// outcome. Exactly one event is published per outcome.
type LifecycleEvent struct {
	ID             string                `json:"id"`
	SubscriptionID string                `json:"subscription_id"`
	CustomerID     string                `json:"customer_id"`
	CustomerEmail  string                `json:"customer_email,omitempty"`
	Action         types.LifecycleAction `json:"action"`
	Outcome        types.LifecycleOutcome `json:"outcome"`
	Reason         string                `json:"reason,omitempty"`
	RefundID       string                `json:"refund_id,omitempty"`
	RefundAmount   decimal.Decimal       `json:"refund_amount"`
	RefundCurrency string                `json:"refund_currency,omitempty"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

// Publisher hands lifecycle events to the dispatcher. Implementations must
// not block on delivery; delivery failures are observable only via logs.
type Publisher interface {
	Publish(ctx context.Context, event *LifecycleEvent) error
}
