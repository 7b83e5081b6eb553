package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keygate/keygate/internal/api/dto"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/service"
	"github.com/keygate/keygate/internal/types"
)

type SubscriptionHandler struct {
	lifecycle *service.LifecycleService
	log       *logger.Logger
}

func NewSubscriptionHandler(lifecycle *service.LifecycleService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{lifecycle: lifecycle, log: log}
}

// Cancel handles cancel and reactivate requests for a subscription.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	result, err := h.lifecycle.Execute(ctx, req.ToLifecycleParams())
	if err != nil {
		h.log.Error("Failed to execute lifecycle action", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCancelSubscriptionResponse(result))
}

// Refund cancels a subscription with an automatic refund when the request
// falls inside the refund window.
func (h *SubscriptionHandler) Refund(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	result, err := h.lifecycle.Execute(ctx, service.LifecycleParams{
		SubscriptionID: req.SubscriptionID,
		Email:          req.Email,
		Action:         types.LifecycleActionCancel,
		AutoRefund:     true,
		Reason:         req.Reason,
	})
	if err != nil {
		h.log.Error("Failed to execute refund", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRefundResponse(result))
}
