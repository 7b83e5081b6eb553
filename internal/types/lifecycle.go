package types

import (
	ierr "github.com/keygate/keygate/internal/errors"
)

// LifecycleAction is the requested subscription state transition. The set is
// closed: unrecognized values are rejected at the boundary rather than
// silently defaulted.
type LifecycleAction string

const (
	LifecycleActionCancel     LifecycleAction = "cancel"
	LifecycleActionReactivate LifecycleAction = "reactivate"
)

func (a LifecycleAction) String() string {
	return string(a)
}

func (a LifecycleAction) Validate() error {
	switch a {
	case LifecycleActionCancel, LifecycleActionReactivate:
		return nil
	default:
		return ierr.NewError("invalid lifecycle action").
			WithHintf("Action %q is not supported, expected one of: cancel, reactivate", a).
			Mark(ierr.ErrValidation)
	}
}

// LifecycleOutcome is the terminal result of one orchestration call.
type LifecycleOutcome string

const (
	OutcomeReactivated                   LifecycleOutcome = "reactivated"
	OutcomeCanceledAtPeriodEnd           LifecycleOutcome = "canceled_at_period_end"
	OutcomeCanceledImmediatelyWithRefund LifecycleOutcome = "canceled_immediately_with_refund"
	OutcomeCanceledImmediatelyNoCharge   LifecycleOutcome = "canceled_immediately_no_charge"
)

func (o LifecycleOutcome) String() string {
	return string(o)
}
