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

type SubscriptionLocatorSuite struct {
	testutil.BaseServiceSuite
	locator *SubscriptionLocator
}

func TestSubscriptionLocator(t *testing.T) {
	suite.Run(t, new(SubscriptionLocatorSuite))
}

func (s *SubscriptionLocatorSuite) SetupTest() {
	s.BaseServiceSuite.SetupTest()
	s.locator = NewSubscriptionLocator(s.Gateway(), s.Logger())
}

func (s *SubscriptionLocatorSuite) seed(id string, status types.SubscriptionStatus, customerID, email string) {
	s.Gateway().AddSubscription(&billing.Subscription{
		ID:            id,
		Status:        status,
		CreatedAt:     time.Now().UTC().Add(-48 * time.Hour),
		CustomerID:    customerID,
		CustomerEmail: email,
	})
}

func (s *SubscriptionLocatorSuite) TestLocateByID() {
	s.seed("sub_001", types.SubscriptionStatusActive, "cus_001", "a@example.com")

	sub, err := s.locator.Locate(s.Context(), "sub_001", "")

	s.NoError(err)
	s.Equal("sub_001", sub.ID)
}

func (s *SubscriptionLocatorSuite) TestLocateByIDNotFound() {
	_, err := s.locator.Locate(s.Context(), "sub_garbage", "")

	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionLocatorSuite) TestLocateByEmailNormalizesInput() {
	s.seed("sub_001", types.SubscriptionStatusActive, "cus_001", "user@example.com")

	sub, err := s.locator.Locate(s.Context(), "", "  USER@Example.com ")

	s.NoError(err)
	s.Equal("sub_001", sub.ID)
}

func (s *SubscriptionLocatorSuite) TestLocateByEmailFirstEntitledWins() {
	// A canceled subscription listed before the active one must be skipped.
	s.seed("sub_old", types.SubscriptionStatusCanceled, "cus_001", "user@example.com")
	s.seed("sub_new", types.SubscriptionStatusActive, "cus_001", "user@example.com")

	sub, err := s.locator.Locate(s.Context(), "", "user@example.com")

	s.NoError(err)
	s.Equal("sub_new", sub.ID)
}

func (s *SubscriptionLocatorSuite) TestLocateByEmailTrialingQualifies() {
	s.seed("sub_001", types.SubscriptionStatusTrialing, "cus_001", "user@example.com")

	sub, err := s.locator.Locate(s.Context(), "", "user@example.com")

	s.NoError(err)
	s.Equal("sub_001", sub.ID)
}

func (s *SubscriptionLocatorSuite) TestLocateByEmailNoneEntitled() {
	s.seed("sub_001", types.SubscriptionStatusCanceled, "cus_001", "user@example.com")
	s.seed("sub_002", types.SubscriptionStatusUnpaid, "cus_001", "user@example.com")

	_, err := s.locator.Locate(s.Context(), "", "user@example.com")

	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionLocatorSuite) TestLocateMissingIdentifiers() {
	_, err := s.locator.Locate(s.Context(), "", "   ")

	s.Error(err)
	s.True(ierr.IsValidation(err))
}
