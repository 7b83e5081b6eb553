package v1

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/domain/billing"
	stripeintegration "github.com/keygate/keygate/internal/integration/stripe"
	stripewebhook "github.com/keygate/keygate/internal/integration/stripe/webhook"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/rest/middleware"
	"github.com/keygate/keygate/internal/service"
	"github.com/keygate/keygate/internal/testutil"
	"github.com/keygate/keygate/internal/types"
	"github.com/stretchr/testify/suite"
)

const testWebhookSecret = "whsec_test_secret"

type WebhookHandlerSuite struct {
	suite.Suite
	gateway *testutil.InMemoryBillingGateway
	router  *gin.Engine
}

func TestWebhookHandler(t *testing.T) {
	suite.Run(t, new(WebhookHandlerSuite))
}

func (s *WebhookHandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := config.GetDefaultConfig()
	cfg.Stripe.WebhookSecret = testWebhookSecret
	log, err := logger.NewLogger(cfg)
	s.Require().NoError(err)

	s.gateway = testutil.NewInMemoryBillingGateway()
	checkoutService := service.NewCheckoutService(s.gateway, cfg, log)

	client := stripeintegration.NewClient(cfg, log)
	handler := stripewebhook.NewHandler(client, checkoutService, log)

	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())
	s.router.POST("/v1/webhooks/stripe", NewWebhookHandler(handler, log).HandleStripe)
}

// sign produces a Stripe-style signature header for the payload.
func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func (s *WebhookHandlerSuite) post(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *WebhookHandlerSuite) TestInvalidSignatureRejected() {
	payload := []byte(`{"id":"evt_001","type":"checkout.session.completed","data":{"object":{}}}`)

	w := s.post(payload, "t=123,v1=deadbeef")

	s.Equal(http.StatusBadRequest, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(false, resp["success"])
}

func (s *WebhookHandlerSuite) TestMissingSignatureRejected() {
	payload := []byte(`{"id":"evt_001","type":"checkout.session.completed","data":{"object":{}}}`)

	w := s.post(payload, "")

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *WebhookHandlerSuite) TestUnknownEventAcknowledged() {
	payload := []byte(`{"id":"evt_001","type":"invoice.finalized","data":{"object":{}}}`)

	w := s.post(payload, sign(payload, testWebhookSecret, time.Now()))

	s.Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(true, resp["received"])
}

func (s *WebhookHandlerSuite) TestCheckoutCompletedResolvesSession() {
	s.gateway.AddSubscription(&billing.Subscription{
		ID:         "sub_001",
		Status:     types.SubscriptionStatusActive,
		CreatedAt:  time.Now().UTC(),
		CustomerID: "cus_001",
	})
	s.gateway.AddSession(&billing.CheckoutSession{
		ID:             "cs_001",
		Status:         billing.CheckoutSessionStatusComplete,
		SubscriptionID: "sub_001",
	})

	payload := []byte(`{"id":"evt_001","type":"checkout.session.completed","data":{"object":{"id":"cs_001","object":"checkout.session"}}}`)

	w := s.post(payload, sign(payload, testWebhookSecret, time.Now()))

	s.Equal(http.StatusOK, w.Code)
}

// Downstream processing failures never turn into a non-2xx response once
// the signature has been verified.
func (s *WebhookHandlerSuite) TestProcessingFailureStillAcknowledged() {
	payload := []byte(`{"id":"evt_001","type":"checkout.session.completed","data":{"object":{"id":"cs_missing","object":"checkout.session"}}}`)

	w := s.post(payload, sign(payload, testWebhookSecret, time.Now()))

	s.Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(true, resp["received"])
}

func (s *WebhookHandlerSuite) TestSubscriptionUpdatedObserved() {
	payload := []byte(`{"id":"evt_001","type":"customer.subscription.updated","data":{"object":{"id":"sub_001","object":"subscription","status":"past_due"}}}`)

	w := s.post(payload, sign(payload, testWebhookSecret, time.Now()))

	s.Equal(http.StatusOK, w.Code)
}
