package memory

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/pubsub"
)

// PubSub implements both Publisher and Subscriber interfaces using
// watermill's gochannel
type PubSub struct {
	pubsub *gochannel.GoChannel
	config *config.NotificationConfig
	logger *logger.Logger
}

// NewPubSub creates a new memory-based pubsub
func NewPubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			// Enable persistence so messages published before the consumer
			// attaches are not lost
			Persistent: true,
			// Never block the request path on subscriber acks
			BlockPublishUntilSubscriberAck: false,
			OutputChannelBuffer:            100,
		},
		watermill.NewStdLogger(false, false),
	)

	return &PubSub{
		pubsub: goChannel,
		config: &cfg.Notification,
		logger: logger,
	}
}

// Publish publishes a notification message
func (p *PubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	return p.pubsub.Publish(topic, msg)
}

// Subscribe starts consuming notification messages
func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.pubsub.Subscribe(ctx, topic)
}

// Close closes both publisher and subscriber
func (p *PubSub) Close() error {
	return p.pubsub.Close()
}
