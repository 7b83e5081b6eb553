package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/keygate/keygate/internal/errors"
	stripewebhook "github.com/keygate/keygate/internal/integration/stripe/webhook"
	"github.com/keygate/keygate/internal/logger"
)

type WebhookHandler struct {
	handler *stripewebhook.Handler
	log     *logger.Logger
}

func NewWebhookHandler(handler *stripewebhook.Handler, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{handler: handler, log: log}
}

// HandleStripe ingests a provider webhook. Signature verification failure
// rejects the request; once verified, the event is always acknowledged even
// if downstream processing fails, so the provider does not retry-storm on
// transient internal errors.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Error("Failed to read webhook payload", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	event, err := h.handler.ParseEvent(payload, signature)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.handler.HandleEvent(c.Request.Context(), event); err != nil {
		h.log.Error("Webhook event processing failed", "error", err, "event_id", event.ID)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
