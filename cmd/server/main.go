package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/keygate/keygate/internal/api"
	v1 "github.com/keygate/keygate/internal/api/v1"
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/domain/billing"
	"github.com/keygate/keygate/internal/httpclient"
	stripeintegration "github.com/keygate/keygate/internal/integration/stripe"
	stripewebhook "github.com/keygate/keygate/internal/integration/stripe/webhook"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/notification"
	pubsubRouter "github.com/keygate/keygate/internal/pubsub/router"
	"github.com/keygate/keygate/internal/sentry"
	"github.com/keygate/keygate/internal/service"
	"github.com/keygate/keygate/internal/types"
	"github.com/keygate/keygate/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Local overrides for development; ignored when no .env file exists
	_ = godotenv.Load()

	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewService,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Payment provider
			stripeintegration.NewClient,
			provideBillingGateway,

			// PubSub router
			pubsubRouter.NewRouter,
		),
	)

	// Notification dispatcher module
	opts = append(opts, notification.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewSubscriptionLocator,
			service.NewLifecycleService,
			service.NewLicenseService,
			service.NewCheckoutService,
			provideStripeWebhookHandler,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideBillingGateway(client *stripeintegration.Client, log *logger.Logger) billing.Gateway {
	return stripeintegration.NewGateway(client, log)
}

func provideStripeWebhookHandler(
	client *stripeintegration.Client,
	checkoutService *service.CheckoutService,
	log *logger.Logger,
) *stripewebhook.Handler {
	return stripewebhook.NewHandler(client, checkoutService, log)
}

func provideHandlers(
	cfg *config.Configuration,
	log *logger.Logger,
	lifecycleService *service.LifecycleService,
	licenseService *service.LicenseService,
	checkoutService *service.CheckoutService,
	webhookHandler *stripewebhook.Handler,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(log),
		Subscription: v1.NewSubscriptionHandler(lifecycleService, log),
		License:      v1.NewLicenseHandler(licenseService, log),
		Checkout:     v1.NewCheckoutHandler(checkoutService, log),
		Webhook:      v1.NewWebhookHandler(webhookHandler, log),
		Chat:         v1.NewChatHandler(cfg, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration) *gin.Engine {
	return api.NewRouter(handlers, cfg)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	notificationService *notification.Service,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startNotificationDispatcher(lc, notificationService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infof("Starting API server on %s", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startNotificationDispatcher(
	lc fx.Lifecycle,
	svc *notification.Service,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping notification dispatcher...")
			return svc.Stop()
		},
	})
}
