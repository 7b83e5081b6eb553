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

type CheckoutServiceSuite struct {
	testutil.BaseServiceSuite
	service *CheckoutService
}

func TestCheckoutService(t *testing.T) {
	suite.Run(t, new(CheckoutServiceSuite))
}

func (s *CheckoutServiceSuite) SetupTest() {
	s.BaseServiceSuite.SetupTest()
	cfg := s.Config()
	cfg.Stripe.SuccessURL = "https://app.example.com/success"
	cfg.Stripe.CancelURL = "https://app.example.com/cancel"
	s.service = NewCheckoutService(s.Gateway(), cfg, s.Logger())
}

func (s *CheckoutServiceSuite) TestCreateSession() {
	session, err := s.service.CreateSession(s.Context(), "buyer@example.com", "", "")

	s.NoError(err)
	s.NotEmpty(session.ID)
	s.NotEmpty(session.URL)
	s.Equal(billing.CheckoutSessionStatusOpen, session.Status)
}

func (s *CheckoutServiceSuite) TestResolveOpenSessionIsPending() {
	s.Gateway().AddSession(&billing.CheckoutSession{
		ID:     "cs_001",
		Status: billing.CheckoutSessionStatusOpen,
	})

	resolution, err := s.service.Resolve(s.Context(), "cs_001")

	s.NoError(err)
	s.True(resolution.Pending)
	s.Nil(resolution.Subscription)
}

func (s *CheckoutServiceSuite) TestResolveCompletedSession() {
	s.Gateway().AddSubscription(&billing.Subscription{
		ID:         "sub_001",
		Status:     types.SubscriptionStatusActive,
		CreatedAt:  time.Now().UTC(),
		CustomerID: "cus_001",
	})
	s.Gateway().AddSession(&billing.CheckoutSession{
		ID:             "cs_001",
		Status:         billing.CheckoutSessionStatusComplete,
		SubscriptionID: "sub_001",
	})

	resolution, err := s.service.Resolve(s.Context(), "cs_001")

	s.NoError(err)
	s.False(resolution.Pending)
	s.Require().NotNil(resolution.Subscription)
	s.Equal("sub_001", resolution.Subscription.ID)
}

// Resolving is a pure read: polling repeatedly returns the same answer.
func (s *CheckoutServiceSuite) TestResolveIsIdempotent() {
	s.Gateway().AddSubscription(&billing.Subscription{
		ID:         "sub_001",
		Status:     types.SubscriptionStatusActive,
		CreatedAt:  time.Now().UTC(),
		CustomerID: "cus_001",
	})
	s.Gateway().AddSession(&billing.CheckoutSession{
		ID:             "cs_001",
		Status:         billing.CheckoutSessionStatusComplete,
		SubscriptionID: "sub_001",
	})

	first, err := s.service.Resolve(s.Context(), "cs_001")
	s.NoError(err)
	second, err := s.service.Resolve(s.Context(), "cs_001")
	s.NoError(err)

	s.Equal(first.Subscription.ID, second.Subscription.ID)
}

func (s *CheckoutServiceSuite) TestResolveExpiredSessionNotFound() {
	s.Gateway().AddSession(&billing.CheckoutSession{
		ID:     "cs_001",
		Status: billing.CheckoutSessionStatusExpired,
	})

	_, err := s.service.Resolve(s.Context(), "cs_001")

	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *CheckoutServiceSuite) TestResolveSessionForWebhook() {
	s.Gateway().AddSubscription(&billing.Subscription{
		ID:         "sub_001",
		Status:     types.SubscriptionStatusActive,
		CreatedAt:  time.Now().UTC(),
		CustomerID: "cus_001",
	})
	s.Gateway().AddSession(&billing.CheckoutSession{
		ID:             "cs_001",
		Status:         billing.CheckoutSessionStatusComplete,
		SubscriptionID: "sub_001",
	})

	subscriptionID, err := s.service.ResolveSession(s.Context(), "cs_001")

	s.NoError(err)
	s.Equal("sub_001", subscriptionID)
}

func (s *CheckoutServiceSuite) TestResolveSessionPendingIsError() {
	s.Gateway().AddSession(&billing.CheckoutSession{
		ID:     "cs_001",
		Status: billing.CheckoutSessionStatusOpen,
	})

	_, err := s.service.ResolveSession(s.Context(), "cs_001")

	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
