package service

import (
	"context"
	"strings"
	"time"

	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/types"
)

// LicenseCheckResult is derived from the provider on every check, never
// stored.
type LicenseCheckResult struct {
	Valid             bool
	SubscriptionID    string
	CustomerID        string
	Status            types.SubscriptionStatus
	ExpiryDate        time.Time
	CancelAtPeriodEnd bool
	TrialEnd          *time.Time
}

// LicenseService validates a license key. A license key is a subscription id
// or an account email, used interchangeably.
type LicenseService struct {
	locator *SubscriptionLocator
	logger  *logger.Logger
}

func NewLicenseService(locator *SubscriptionLocator, logger *logger.Logger) *LicenseService {
	return &LicenseService{
		locator: locator,
		logger:  logger,
	}
}

// Check resolves the license key to a subscription and reports entitlement.
// An unknown key is a definitive "not valid", not an error.
func (s *LicenseService) Check(ctx context.Context, licenseKey string) (*LicenseCheckResult, error) {
	key := strings.TrimSpace(licenseKey)
	if key == "" {
		return nil, ierr.NewError("missing license key").
			WithHint("A license key is required").
			Mark(ierr.ErrValidation)
	}

	var subscriptionID, email string
	if strings.Contains(key, "@") {
		email = key
	} else {
		subscriptionID = key
	}

	sub, err := s.locator.Locate(ctx, subscriptionID, email)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.logger.Debugw("license check found no subscription", "license_key", key)
			return &LicenseCheckResult{Valid: false}, nil
		}
		return nil, err
	}

	return &LicenseCheckResult{
		Valid:             sub.Status.IsEntitled(),
		SubscriptionID:    sub.ID,
		CustomerID:        sub.CustomerID,
		Status:            sub.Status,
		ExpiryDate:        sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		TrialEnd:          sub.TrialEnd,
	}, nil
}
