package dto

import (
	"time"

	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/service"
	"github.com/samber/lo"
)

// LicenseCheckRequest carries the license key: a subscription id or an
// account email, used interchangeably.
type LicenseCheckRequest struct {
	LicenseKey string `json:"licenseKey"`
}

func (r *LicenseCheckRequest) Validate() error {
	if r.LicenseKey == "" {
		return ierr.NewError("missing license key").
			WithHint("licenseKey is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// LicenseCheckResponse reports entitlement. TrialEnd is always present and
// null when the subscription has no trial.
type LicenseCheckResponse struct {
	Valid             bool   `json:"valid"`
	SubscriptionID    string `json:"subscriptionId,omitempty"`
	CustomerID        string `json:"customerId,omitempty"`
	Status            string `json:"status,omitempty"`
	ExpiryDate        string `json:"expiryDate,omitempty"`
	CancelAtPeriodEnd *bool  `json:"cancelAtPeriodEnd,omitempty"`
	TrialEnd          *int64 `json:"trialEnd"`
}

// NewLicenseCheckResponse maps a license check result to the external
// contract.
func NewLicenseCheckResponse(result *service.LicenseCheckResult) *LicenseCheckResponse {
	resp := &LicenseCheckResponse{
		Valid:          result.Valid,
		SubscriptionID: result.SubscriptionID,
		CustomerID:     result.CustomerID,
		Status:         string(result.Status),
	}

	if result.SubscriptionID != "" {
		resp.CancelAtPeriodEnd = lo.ToPtr(result.CancelAtPeriodEnd)
		if !result.ExpiryDate.IsZero() {
			resp.ExpiryDate = result.ExpiryDate.UTC().Format(time.RFC3339)
		}
		if result.TrialEnd != nil {
			resp.TrialEnd = lo.ToPtr(result.TrialEnd.Unix())
		}
	}

	return resp
}
