package notification

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/pubsub"
)

type eventPublisher struct {
	pubSub pubsub.PubSub
	config *config.NotificationConfig
	logger *logger.Logger
}

// NewPublisher creates a publisher that hands lifecycle events to the
// in-process dispatcher
func NewPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) (Publisher, error) {
	return &eventPublisher{
		pubSub: pubSub,
		config: &cfg.Notification,
		logger: logger,
	}, nil
}

func (p *eventPublisher) Publish(ctx context.Context, event *LifecycleEvent) error {
	if !p.config.Enabled {
		p.logger.Debugw("notifications disabled, dropping lifecycle event",
			"event_id", event.ID,
			"subscription_id", event.SubscriptionID,
		)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("subscription_id", event.SubscriptionID)
	msg.SetContext(ctx)

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish lifecycle event",
			"error", err,
			"event_id", event.ID,
			"subscription_id", event.SubscriptionID,
		)
		return err
	}

	p.logger.Infow("published lifecycle event",
		"event_id", event.ID,
		"subscription_id", event.SubscriptionID,
		"outcome", event.Outcome,
		"topic", p.config.Topic,
	)

	return nil
}
