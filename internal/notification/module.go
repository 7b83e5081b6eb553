package notification

import (
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/email"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/pubsub"
	"github.com/keygate/keygate/internal/pubsub/memory"
	"go.uber.org/fx"
)

// Module provides all notification dispatcher dependencies
var Module = fx.Options(
	fx.Provide(
		providePubSub,
		provideEmailClient,
		NewPublisher,
		NewHandler,
		NewService,
	),
)

func provideEmailClient(cfg *config.Configuration) *email.Client {
	return email.NewClient(email.Config{
		Enabled:     cfg.Email.Enabled,
		APIKey:      cfg.Email.APIKey,
		FromAddress: cfg.Email.FromAddress,
		ReplyTo:     cfg.Email.ReplyTo,
	})
}

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	return memory.NewPubSub(cfg, logger)
}
