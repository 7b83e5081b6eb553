package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/domain/billing"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/rest/middleware"
	"github.com/keygate/keygate/internal/service"
	"github.com/keygate/keygate/internal/testutil"
	"github.com/keygate/keygate/internal/types"
	"github.com/stretchr/testify/suite"
)

type SubscriptionHandlerSuite struct {
	suite.Suite
	gateway *testutil.InMemoryBillingGateway
	router  *gin.Engine
	now     time.Time
}

func TestSubscriptionHandler(t *testing.T) {
	suite.Run(t, new(SubscriptionHandlerSuite))
}

func (s *SubscriptionHandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := config.GetDefaultConfig()
	log, err := logger.NewLogger(cfg)
	s.Require().NoError(err)

	s.gateway = testutil.NewInMemoryBillingGateway()
	locator := service.NewSubscriptionLocator(s.gateway, log)
	lifecycle := service.NewLifecycleService(s.gateway, locator, testutil.NewInMemoryLifecyclePublisher(), log)
	lifecycle.SetClock(func() time.Time { return s.now })

	handler := NewSubscriptionHandler(lifecycle, log)

	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())
	s.router.POST("/v1/subscription/cancel", handler.Cancel)
	s.router.POST("/v1/subscription/refund", handler.Refund)
}

func (s *SubscriptionHandlerSuite) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *SubscriptionHandlerSuite) seedActiveWithInvoice(createdDaysAgo float64) {
	created := s.now.Add(-time.Duration(createdDaysAgo * 24 * float64(time.Hour)))
	s.gateway.AddSubscription(&billing.Subscription{
		ID:               "sub_001",
		Status:           types.SubscriptionStatusActive,
		CreatedAt:        created,
		CurrentPeriodEnd: s.now.Add(20 * 24 * time.Hour),
		CustomerID:       "cus_001",
		CustomerEmail:    "buyer@example.com",
	})
	s.gateway.AddInvoice(&billing.Invoice{
		ID:             "in_001",
		SubscriptionID: "sub_001",
		ChargeID:       "ch_1",
		AmountPaid:     499,
		Currency:       "usd",
		CreatedAt:      created,
	})
}

func (s *SubscriptionHandlerSuite) TestMissingIdentifierRejected() {
	w := s.post("/v1/subscription/cancel", `{}`)

	s.Equal(http.StatusBadRequest, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(false, resp["success"])
}

func (s *SubscriptionHandlerSuite) TestCancelWithAutoRefund() {
	s.seedActiveWithInvoice(3)

	w := s.post("/v1/subscription/cancel", `{"subscriptionId":"sub_001","autoRefund":true}`)

	s.Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(true, resp["success"])
	s.Equal("sub_001", resp["subscriptionId"])
	s.Equal(true, resp["refunded"])
	s.InDelta(4.99, resp["refundAmount"], 1e-9)
}

func (s *SubscriptionHandlerSuite) TestCancelOutsideWindowRetainsAccess() {
	s.seedActiveWithInvoice(10)

	w := s.post("/v1/subscription/cancel", `{"subscriptionId":"sub_001","autoRefund":true}`)

	s.Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(true, resp["success"])
	s.Equal(true, resp["cancelAtPeriodEnd"])
	s.Equal(false, resp["refunded"])
	s.NotNil(resp["currentPeriodEnd"])
}

func (s *SubscriptionHandlerSuite) TestReactivateAction() {
	s.gateway.AddSubscription(&billing.Subscription{
		ID:                "sub_001",
		Status:            types.SubscriptionStatusActive,
		CreatedAt:         s.now.Add(-30 * 24 * time.Hour),
		CancelAtPeriodEnd: true,
		CustomerID:        "cus_001",
	})

	w := s.post("/v1/subscription/cancel", `{"subscriptionId":"sub_001","action":"reactivate"}`)

	s.Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(true, resp["success"])
	s.Equal(false, resp["cancelAtPeriodEnd"])
}

func (s *SubscriptionHandlerSuite) TestUnknownActionRejected() {
	s.seedActiveWithInvoice(3)

	w := s.post("/v1/subscription/cancel", `{"subscriptionId":"sub_001","action":"destroy"}`)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *SubscriptionHandlerSuite) TestUnknownSubscriptionIs404() {
	w := s.post("/v1/subscription/cancel", `{"subscriptionId":"sub_missing"}`)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *SubscriptionHandlerSuite) TestRefundEndpoint() {
	s.seedActiveWithInvoice(3)

	w := s.post("/v1/subscription/refund", `{"subscriptionId":"sub_001"}`)

	s.Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(true, resp["success"])
	s.NotEmpty(resp["refundId"])
	s.Equal("sub_001", resp["subscriptionId"])
	s.InDelta(4.99, resp["amount"], 1e-9)
	s.Equal("usd", resp["currency"])
}

func (s *SubscriptionHandlerSuite) TestRefundEndpointTrialCancellation() {
	s.gateway.AddSubscription(&billing.Subscription{
		ID:         "sub_001",
		Status:     types.SubscriptionStatusTrialing,
		CreatedAt:  s.now.Add(-2 * 24 * time.Hour),
		CustomerID: "cus_001",
	})

	w := s.post("/v1/subscription/refund", `{"subscriptionId":"sub_001"}`)

	s.Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(true, resp["success"])
	s.Equal(true, resp["cancelled"])
	s.Nil(resp["refundId"])
}

func (s *SubscriptionHandlerSuite) TestRefundFailureStillSucceeds() {
	s.seedActiveWithInvoice(3)
	s.gateway.FailRefund = true

	w := s.post("/v1/subscription/refund", `{"subscriptionId":"sub_001"}`)

	s.Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(true, resp["success"])
	s.Equal(true, resp["cancelled"])
}
