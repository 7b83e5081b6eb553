package service

import (
	"testing"
	"time"

	"github.com/keygate/keygate/internal/domain/billing"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/testutil"
	"github.com/keygate/keygate/internal/types"
	"github.com/stretchr/testify/suite"
)

type LicenseServiceSuite struct {
	testutil.BaseServiceSuite
	service *LicenseService
}

func TestLicenseService(t *testing.T) {
	suite.Run(t, new(LicenseServiceSuite))
}

func (s *LicenseServiceSuite) SetupTest() {
	s.BaseServiceSuite.SetupTest()
	locator := NewSubscriptionLocator(s.Gateway(), s.Logger())
	s.service = NewLicenseService(locator, s.Logger())
}

func (s *LicenseServiceSuite) TestActiveSubscriptionIsValid() {
	periodEnd := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	s.Gateway().AddSubscription(&billing.Subscription{
		ID:               "sub_001",
		Status:           types.SubscriptionStatusActive,
		CreatedAt:        time.Now().UTC().Add(-30 * 24 * time.Hour),
		CurrentPeriodEnd: periodEnd,
		CustomerID:       "cus_001",
		CustomerEmail:    "user@example.com",
	})

	result, err := s.service.Check(s.Context(), "sub_001")

	s.NoError(err)
	s.True(result.Valid)
	s.Equal("sub_001", result.SubscriptionID)
	s.Equal("cus_001", result.CustomerID)
	s.Equal(types.SubscriptionStatusActive, result.Status)
	s.Equal(periodEnd, result.ExpiryDate)
}

func (s *LicenseServiceSuite) TestCanceledSubscriptionIsInvalid() {
	s.Gateway().AddSubscription(&billing.Subscription{
		ID:         "sub_001",
		Status:     types.SubscriptionStatusCanceled,
		CreatedAt:  time.Now().UTC().Add(-60 * 24 * time.Hour),
		CustomerID: "cus_001",
	})

	result, err := s.service.Check(s.Context(), "sub_001")

	s.NoError(err)
	s.False(result.Valid)
	s.Equal(types.SubscriptionStatusCanceled, result.Status)
}

func (s *LicenseServiceSuite) TestTrialingSubscriptionIsValid() {
	trialEnd := time.Now().UTC().Add(5 * 24 * time.Hour)
	s.Gateway().AddSubscription(&billing.Subscription{
		ID:         "sub_001",
		Status:     types.SubscriptionStatusTrialing,
		CreatedAt:  time.Now().UTC().Add(-2 * 24 * time.Hour),
		TrialEnd:   &trialEnd,
		CustomerID: "cus_001",
	})

	result, err := s.service.Check(s.Context(), "sub_001")

	s.NoError(err)
	s.True(result.Valid)
	s.Require().NotNil(result.TrialEnd)
	s.Equal(trialEnd, *result.TrialEnd)
}

func (s *LicenseServiceSuite) TestEmailUsedAsLicenseKey() {
	s.Gateway().AddSubscription(&billing.Subscription{
		ID:            "sub_001",
		Status:        types.SubscriptionStatusActive,
		CreatedAt:     time.Now().UTC().Add(-10 * 24 * time.Hour),
		CustomerID:    "cus_001",
		CustomerEmail: "user@example.com",
	})

	result, err := s.service.Check(s.Context(), "User@Example.com")

	s.NoError(err)
	s.True(result.Valid)
	s.Equal("sub_001", result.SubscriptionID)
}

func (s *LicenseServiceSuite) TestUnknownKeyIsInvalidNotError() {
	result, err := s.service.Check(s.Context(), "sub_nonexistent")

	s.NoError(err)
	s.False(result.Valid)
	s.Empty(result.SubscriptionID)
}

func (s *LicenseServiceSuite) TestEmptyKeyRejected() {
	_, err := s.service.Check(s.Context(), "   ")

	s.Error(err)
	s.True(ierr.IsValidation(err))
}
