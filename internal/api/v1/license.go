package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keygate/keygate/internal/api/dto"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/service"
)

type LicenseHandler struct {
	service *service.LicenseService
	log     *logger.Logger
}

func NewLicenseHandler(service *service.LicenseService, log *logger.Logger) *LicenseHandler {
	return &LicenseHandler{service: service, log: log}
}

// Check validates a license key against the provider.
func (h *LicenseHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.LicenseCheckRequest
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

	result, err := h.service.Check(ctx, req.LicenseKey)
	if err != nil {
		h.log.Error("Failed to check license", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLicenseCheckResponse(result))
}
