package notification

import (
	"context"

	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/logger"
	pubsubRouter "github.com/keygate/keygate/internal/pubsub/router"
)

// Service owns the dispatcher lifecycle: it attaches the event handler to
// the message router and tears it down on shutdown.
type Service struct {
	config  *config.Configuration
	handler Handler
	router  *pubsubRouter.Router
	logger  *logger.Logger
}

// NewService creates the notification dispatcher service
func NewService(
	cfg *config.Configuration,
	handler Handler,
	router *pubsubRouter.Router,
	logger *logger.Logger,
) *Service {
	return &Service{
		config:  cfg,
		handler: handler,
		router:  router,
		logger:  logger,
	}
}

// Start registers the handler and runs the router in the background
func (s *Service) Start(ctx context.Context) error {
	if !s.config.Notification.Enabled {
		s.logger.Info("notification dispatcher disabled")
		return nil
	}

	s.handler.RegisterHandler(s.router)

	go func() {
		if err := s.router.Run(); err != nil {
			s.logger.Errorw("message router stopped", "error", err)
		}
	}()

	s.logger.Info("notification dispatcher started")
	return nil
}

// Stop shuts the router down
func (s *Service) Stop() error {
	if !s.config.Notification.Enabled {
		return nil
	}
	return s.router.Close()
}
