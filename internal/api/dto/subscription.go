package dto

import (
	"fmt"
	"strings"

	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/service"
	"github.com/keygate/keygate/internal/types"
	"github.com/keygate/keygate/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CancelSubscriptionRequest drives one lifecycle orchestration call. The
// subscription is identified by id or by email; exactly one is required.
type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Action         string `json:"action,omitempty"`
	AutoRefund     *bool  `json:"autoRefund,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func (r *CancelSubscriptionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.SubscriptionID == "" && strings.TrimSpace(r.Email) == "" {
		return ierr.NewError("missing identifier").
			WithHint("Either subscriptionId or email is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToLifecycleParams maps the request to orchestrator params. The action
// defaults to cancel; period-end cancellation is the default path, so
// autoRefund defaults to false.
func (r *CancelSubscriptionRequest) ToLifecycleParams() service.LifecycleParams {
	action := types.LifecycleActionCancel
	if r.Action != "" {
		action = types.LifecycleAction(r.Action)
	}

	autoRefund := false
	if r.AutoRefund != nil {
		autoRefund = *r.AutoRefund
	}

	return service.LifecycleParams{
		SubscriptionID: r.SubscriptionID,
		Email:          r.Email,
		Action:         action,
		AutoRefund:     autoRefund,
		Reason:         r.Reason,
	}
}

// CancelSubscriptionResponse is the caller-facing result of a cancel or
// reactivate request.
type CancelSubscriptionResponse struct {
	Success           bool             `json:"success"`
	Message           string           `json:"message"`
	SubscriptionID    string           `json:"subscriptionId"`
	CancelAtPeriodEnd *bool            `json:"cancelAtPeriodEnd,omitempty"`
	CurrentPeriodEnd  *int64           `json:"currentPeriodEnd,omitempty"`
	Refunded          *bool            `json:"refunded,omitempty"`
	RefundAmount      *decimal.Decimal `json:"refundAmount,omitempty"`
}

// NewCancelSubscriptionResponse maps a lifecycle result to the external
// contract.
func NewCancelSubscriptionResponse(result *service.LifecycleResult) *CancelSubscriptionResponse {
	sub := result.Subscription
	resp := &CancelSubscriptionResponse{
		Success:        true,
		SubscriptionID: sub.ID,
	}

	switch result.Outcome {
	case types.OutcomeReactivated:
		resp.Message = "Subscription reactivated"
		resp.CancelAtPeriodEnd = lo.ToPtr(sub.CancelAtPeriodEnd)

	case types.OutcomeCanceledAtPeriodEnd:
		resp.Message = "Subscription will be canceled at the end of the current period"
		resp.CancelAtPeriodEnd = lo.ToPtr(true)
		resp.CurrentPeriodEnd = lo.ToPtr(sub.CurrentPeriodEnd.Unix())
		resp.Refunded = lo.ToPtr(false)

	case types.OutcomeCanceledImmediatelyNoCharge:
		resp.Message = "Trial subscription canceled immediately, no charge to refund"
		resp.Refunded = lo.ToPtr(false)

	case types.OutcomeCanceledImmediatelyWithRefund:
		resp.Message = "Subscription canceled immediately and refunded"
		resp.Refunded = lo.ToPtr(true)
		resp.RefundAmount = lo.ToPtr(result.Refund.AmountDecimal())

	default:
		resp.Message = fmt.Sprintf("Subscription %s", result.Outcome)
	}

	return resp
}

// RefundRequest identifies the subscription to refund and cancel.
type RefundRequest struct {
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Reason         string `json:"reason,omitempty"`
}

func (r *RefundRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.SubscriptionID == "" && strings.TrimSpace(r.Email) == "" {
		return ierr.NewError("missing identifier").
			WithHint("Either subscriptionId or email is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RefundResponse is the caller-facing result of a refund request.
type RefundResponse struct {
	Success        bool             `json:"success"`
	Message        string           `json:"message,omitempty"`
	RefundID       string           `json:"refundId,omitempty"`
	SubscriptionID string           `json:"subscriptionId,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Currency       string           `json:"currency,omitempty"`
	Cancelled      *bool            `json:"cancelled,omitempty"`
}

// NewRefundResponse maps a lifecycle result to the refund contract.
func NewRefundResponse(result *service.LifecycleResult) *RefundResponse {
	resp := &RefundResponse{
		Success:        true,
		SubscriptionID: result.Subscription.ID,
	}

	switch result.Outcome {
	case types.OutcomeCanceledImmediatelyWithRefund:
		resp.RefundID = result.Refund.ID
		resp.Amount = lo.ToPtr(result.Refund.AmountDecimal())
		resp.Currency = result.Refund.Currency
		resp.Message = "Refund issued and subscription canceled"

	case types.OutcomeCanceledImmediatelyNoCharge:
		resp.Cancelled = lo.ToPtr(true)
		resp.Message = "Trial subscription canceled, nothing was charged"

	default:
		resp.Cancelled = lo.ToPtr(true)
		resp.Message = "Refund not available, subscription will cancel at period end"
	}

	return resp
}
