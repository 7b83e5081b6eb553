package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/keygate/keygate/internal/domain/billing"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/notification"
	"github.com/keygate/keygate/internal/types"
)

// LifecycleParams is the transient request driving one orchestration call.
type LifecycleParams struct {
	SubscriptionID string
	Email          string
	Action         types.LifecycleAction
	AutoRefund     bool
	Reason         string
}

// LifecycleResult is the terminal outcome of one orchestration call.
type LifecycleResult struct {
	Outcome           types.LifecycleOutcome
	Subscription      *billing.Subscription
	Refund            *billing.Refund
	DaysSincePurchase float64
}

// LifecycleService executes subscription state transitions against the
// provider. Each invocation is stateless: the subscription is resolved
// fresh, evaluated against the refund window, and transitioned in an order
// that prefers the customer-favorable partial-failure state (a refund that
// lands without the cancellation is acceptable; the reverse is not).
type LifecycleService struct {
	gateway   billing.Gateway
	locator   *SubscriptionLocator
	publisher notification.Publisher
	logger    *logger.Logger

	// now supplies the single clock instant used for every window check
	// within one request.
	now func() time.Time
}

func NewLifecycleService(
	gateway billing.Gateway,
	locator *SubscriptionLocator,
	publisher notification.Publisher,
	logger *logger.Logger,
) *LifecycleService {
	return &LifecycleService{
		gateway:   gateway,
		locator:   locator,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the clock used for window checks. Intended for tests.
func (s *LifecycleService) SetClock(now func() time.Time) {
	s.now = now
}

// Execute runs the lifecycle state machine for one request.
func (s *LifecycleService) Execute(ctx context.Context, params LifecycleParams) (*LifecycleResult, error) {
	now := s.now().UTC()

	if err := params.Action.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.locator.Locate(ctx, params.SubscriptionID, params.Email)
	if err != nil {
		return nil, err
	}

	var result *LifecycleResult
	switch params.Action {
	case types.LifecycleActionReactivate:
		result, err = s.reactivate(ctx, sub)
	case types.LifecycleActionCancel:
		result, err = s.cancel(ctx, sub, params, now)
	}
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, params, result, now)

	return result, nil
}

// reactivate clears a pending period-end cancellation. Idempotent: a
// subscription with no pending cancellation is a no-op success.
func (s *LifecycleService) reactivate(ctx context.Context, sub *billing.Subscription) (*LifecycleResult, error) {
	if sub.Status.IsTerminal() {
		return nil, ierr.NewError("subscription is already canceled").
			WithHint("A canceled subscription cannot be reactivated").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
				"status":          sub.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if !sub.CancelAtPeriodEnd {
		s.logger.Infow("subscription has no pending cancellation, reactivation is a no-op",
			"subscription_id", sub.ID,
		)
		return &LifecycleResult{
			Outcome:      types.OutcomeReactivated,
			Subscription: sub,
		}, nil
	}

	updated, err := s.gateway.SetCancelAtPeriodEnd(ctx, sub.ID, false)
	if err != nil {
		return nil, err
	}

	return &LifecycleResult{
		Outcome:      types.OutcomeReactivated,
		Subscription: updated,
	}, nil
}

func (s *LifecycleService) cancel(ctx context.Context, sub *billing.Subscription, params LifecycleParams, now time.Time) (*LifecycleResult, error) {
	if sub.Status.IsTerminal() {
		return nil, ierr.NewError("subscription is already canceled").
			WithHint("The subscription has already been canceled").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
				"status":          sub.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	eligibility := IsRefundEligible(sub, now)

	if !params.AutoRefund || !eligibility.Eligible {
		// Outside the window (or refund not requested) the customer keeps
		// access until the period end. Never an error.
		return s.cancelAtPeriodEnd(ctx, sub, eligibility)
	}

	if sub.Status == types.SubscriptionStatusTrialing {
		// Nothing was charged during a trial, so there is nothing to refund.
		updated, err := s.gateway.CancelSubscriptionNow(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		return &LifecycleResult{
			Outcome:           types.OutcomeCanceledImmediatelyNoCharge,
			Subscription:      updated,
			DaysSincePurchase: eligibility.DaysSincePurchase,
		}, nil
	}

	invoice, err := s.gateway.LatestPaidInvoice(ctx, sub.ID)
	if err != nil {
		if ierr.IsNotFound(err) {
			// Never charged: cannot refund, degrade to the standard path.
			return s.cancelAtPeriodEnd(ctx, sub, eligibility)
		}
		s.logger.Errorw("invoice lookup failed, falling back to period-end cancellation",
			"error", err,
			"subscription_id", sub.ID,
		)
		return s.cancelAtPeriodEnd(ctx, sub, eligibility)
	}

	metadata := map[string]string{
		"subscription_id": sub.ID,
	}
	if params.Reason != "" {
		// Stripe only accepts its own reason enum; the caller's free text
		// rides along in metadata.
		metadata["reason"] = params.Reason
	}

	refund, err := s.gateway.CreateRefund(ctx, billing.RefundParams{
		ChargeID:        invoice.ChargeID,
		PaymentIntentID: invoice.PaymentIntentID,
		Reason:          params.Reason,
		Metadata:        metadata,
	})
	if err != nil {
		// Refund failure is non-fatal to the cancellation intent.
		s.logger.Errorw("refund failed, falling back to period-end cancellation",
			"error", err,
			"subscription_id", sub.ID,
			"invoice_id", invoice.ID,
		)
		return s.cancelAtPeriodEnd(ctx, sub, eligibility)
	}

	// The refund has landed; only now is the cancellation written.
	updated, err := s.gateway.CancelSubscriptionNow(ctx, sub.ID)
	if err != nil {
		s.logger.Errorw("cancellation failed after successful refund",
			"error", err,
			"subscription_id", sub.ID,
			"refund_id", refund.ID,
		)
		return nil, err
	}

	return &LifecycleResult{
		Outcome:           types.OutcomeCanceledImmediatelyWithRefund,
		Subscription:      updated,
		Refund:            refund,
		DaysSincePurchase: eligibility.DaysSincePurchase,
	}, nil
}

func (s *LifecycleService) cancelAtPeriodEnd(ctx context.Context, sub *billing.Subscription, eligibility RefundEligibility) (*LifecycleResult, error) {
	updated, err := s.gateway.SetCancelAtPeriodEnd(ctx, sub.ID, true)
	if err != nil {
		return nil, err
	}
	return &LifecycleResult{
		Outcome:           types.OutcomeCanceledAtPeriodEnd,
		Subscription:      updated,
		DaysSincePurchase: eligibility.DaysSincePurchase,
	}, nil
}

// dispatch publishes the administrative notification for a terminal outcome.
// Fire-and-forget: the caller's response never waits on it and its failure
// is observable only via logs.
func (s *LifecycleService) dispatch(ctx context.Context, params LifecycleParams, result *LifecycleResult, now time.Time) {
	if s.publisher == nil {
		return
	}

	event := &notification.LifecycleEvent{
		ID:             uuid.NewString(),
		SubscriptionID: result.Subscription.ID,
		CustomerID:     result.Subscription.CustomerID,
		CustomerEmail:  result.Subscription.CustomerEmail,
		Action:         params.Action,
		Outcome:        result.Outcome,
		Reason:         params.Reason,
		OccurredAt:     now,
	}
	if result.Refund != nil {
		event.RefundID = result.Refund.ID
		event.RefundAmount = result.Refund.AmountDecimal()
		event.RefundCurrency = result.Refund.Currency
	}

	bgCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.publisher.Publish(bgCtx, event); err != nil {
			s.logger.Errorw("failed to publish lifecycle notification",
				"error", err,
				"event_id", event.ID,
				"subscription_id", event.SubscriptionID,
			)
		}
	}()
}
