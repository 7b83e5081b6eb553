package router

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/sentry"
)

// Router manages all message routing
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
	config *config.NotificationConfig
}

// NewRouter creates a new message router
func NewRouter(cfg *config.Configuration, logger *logger.Logger, sentry *sentry.Service) (*Router, error) {
	router, err := message.NewRouter(
		message.RouterConfig{},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		middleware.Recoverer,     // Recover from panics
		middleware.CorrelationID, // Add correlation IDs
		middleware.Retry{
			MaxRetries:          cfg.Notification.MaxRetries,
			InitialInterval:     cfg.Notification.InitialInterval,
			MaxInterval:         cfg.Notification.MaxInterval,
			Multiplier:          cfg.Notification.Multiplier,
			MaxElapsedTime:      cfg.Notification.MaxElapsedTime,
			RandomizationFactor: 0.5,
			Logger:              watermill.NewStdLogger(false, false),
			OnRetryHook: func(retryNum int, delay time.Duration) {
				logger.Infow("retrying message",
					"retry_number", retryNum,
					"max_retries", cfg.Notification.MaxRetries,
					"delay", delay,
				)
			},
		}.Middleware,
	)

	return &Router{
		router: router,
		logger: logger,
		sentry: sentry,
		config: &cfg.Notification,
	}, nil
}

// AddNoPublishHandler adds a handler that doesn't publish messages
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err != nil {
				r.sentry.CaptureException(err)
				r.logger.Errorw("handler failed",
					"error", err,
					"correlation_id", middleware.MessageCorrelationID(msg),
					"message_uuid", msg.UUID,
				)
			}
			return err
		},
	)

	for _, middleware := range middlewares {
		handler.AddMiddleware(middleware)
	}
}

// Run starts the router and blocks until the context is canceled
func (r *Router) Run() error {
	r.logger.Info("starting message router")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return r.router.Run(ctx)
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing message router")
	return r.router.Close()
}
