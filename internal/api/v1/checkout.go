package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keygate/keygate/internal/api/dto"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/service"
)

type CheckoutHandler struct {
	service *service.CheckoutService
	log     *logger.Logger
}

func NewCheckoutHandler(service *service.CheckoutService, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: service, log: log}
}

// CreateSession starts a checkout session and returns the redirect URL.
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateCheckoutSessionRequest
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

	session, err := h.service.CreateSession(ctx, req.Email, req.SuccessURL, req.CancelURL)
	if err != nil {
		h.log.Error("Failed to create checkout session", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &dto.CreateCheckoutSessionResponse{
		Success:     true,
		SessionID:   session.ID,
		RedirectURL: session.URL,
	})
}

// ResolveSession reports whether a checkout session has completed into a
// subscription. Idempotent: callers poll it until completion.
func (h *CheckoutHandler) ResolveSession(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.ResolveSessionRequest
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

	resolution, err := h.service.Resolve(ctx, req.SessionID)
	if err != nil {
		h.log.Error("Failed to resolve checkout session", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewResolveSessionResponse(resolution))
}
