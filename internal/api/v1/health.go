package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keygate/keygate/internal/logger"
)

type HealthHandler struct {
	logger *logger.Logger
}

func NewHealthHandler(
	logger *logger.Logger,
) *HealthHandler {
	return &HealthHandler{
		logger: logger,
	}
}

// Health reports process liveness.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
