package service

import (
	"time"

	"github.com/keygate/keygate/internal/domain/billing"
)

// RefundWindowDays is the number of days after purchase during which a
// refund is offered. The boundary is inclusive: exactly 7.0 days is still
// eligible.
const RefundWindowDays = 7.0

// RefundEligibility is the result of evaluating the refund window policy.
type RefundEligibility struct {
	Eligible          bool
	DaysSincePurchase float64
}

// IsRefundEligible computes refund eligibility from the elapsed time since
// subscription creation. Pure and deterministic; the caller supplies the
// clock instant, captured once per request.
func IsRefundEligible(sub *billing.Subscription, now time.Time) RefundEligibility {
	days := now.Sub(sub.CreatedAt).Hours() / 24
	return RefundEligibility{
		Eligible:          days <= RefundWindowDays,
		DaysSincePurchase: days,
	}
}
