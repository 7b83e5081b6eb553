package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keygate/keygate/internal/types"
)

// CORSMiddleware handles CORS headers. The API is called from desktop and
// browser clients on arbitrary origins, so the policy is permissive.
func CORSMiddleware(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+types.HeaderRequestID)
	h.Set("Access-Control-Max-Age", "86400")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}
