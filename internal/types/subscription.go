package types

// SubscriptionStatus is the status of a subscription as reported by the
// payment provider. The set mirrors Stripe's subscription statuses.
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsEntitled reports whether a subscription in this status currently grants
// access. past_due is deliberately excluded: access lapses as soon as the
// provider flags a failed renewal.
func (s SubscriptionStatus) IsEntitled() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// IsTerminal reports whether the status can never transition again.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCanceled || s == SubscriptionStatusIncompleteExpired
}
