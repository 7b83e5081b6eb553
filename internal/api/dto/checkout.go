package dto

import (
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/service"
	"github.com/keygate/keygate/internal/validator"
)

// CreateCheckoutSessionRequest starts a provider-hosted purchase flow.
type CreateCheckoutSessionRequest struct {
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	SuccessURL string `json:"successUrl,omitempty" validate:"omitempty,url"`
	CancelURL  string `json:"cancelUrl,omitempty" validate:"omitempty,url"`
}

func (r *CreateCheckoutSessionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// CreateCheckoutSessionResponse carries the redirect target for the caller.
type CreateCheckoutSessionResponse struct {
	Success     bool   `json:"success"`
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
}

// ResolveSessionRequest polls a session for completion.
type ResolveSessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (r *ResolveSessionRequest) Validate() error {
	if r.SessionID == "" {
		return ierr.NewError("missing session id").
			WithHint("sessionId is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ResolveSessionResponse reports the session state: pending until the
// provider completes it into a subscription.
type ResolveSessionResponse struct {
	Success        bool   `json:"success"`
	Pending        bool   `json:"pending"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Status         string `json:"status,omitempty"`
	CustomerEmail  string `json:"customerEmail,omitempty"`
}

// NewResolveSessionResponse maps a session resolution to the external
// contract.
func NewResolveSessionResponse(resolution *service.SessionResolution) *ResolveSessionResponse {
	if resolution.Pending {
		return &ResolveSessionResponse{
			Success: true,
			Pending: true,
		}
	}

	return &ResolveSessionResponse{
		Success:        true,
		SubscriptionID: resolution.Subscription.ID,
		Status:         string(resolution.Subscription.Status),
		CustomerEmail:  resolution.Subscription.CustomerEmail,
	}
}
