package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/keygate/keygate/internal/api/v1"
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/rest/middleware"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Subscription *v1.SubscriptionHandler
	License      *v1.LicenseHandler
	Checkout     *v1.CheckoutHandler
	Webhook      *v1.WebhookHandler
	Chat         *v1.ChatHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

// registerV1Routes wires the versioned API. Core endpoints are POST-only;
// anything else 404s at the router.
func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	subscription := router.Group("/subscription")
	{
		subscription.POST("/cancel", handlers.Subscription.Cancel)
		subscription.POST("/refund", handlers.Subscription.Refund)
	}

	license := router.Group("/license")
	{
		license.POST("/check", handlers.License.Check)
	}

	checkout := router.Group("/checkout")
	{
		checkout.POST("/session", handlers.Checkout.CreateSession)
		checkout.POST("/resolve", handlers.Checkout.ResolveSession)
	}

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/stripe", handlers.Webhook.HandleStripe)
	}

	chat := router.Group("/chat")
	{
		chat.POST("/completions", handlers.Chat.Completions)
	}
}
