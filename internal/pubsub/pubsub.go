package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher defines the interface for publishing notification messages
type Publisher interface {
	// Publish publishes a message to a topic
	Publish(ctx context.Context, topic string, msg *message.Message) error
	// Close closes the publisher
	Close() error
}

// Subscriber defines the interface for consuming notification messages
type Subscriber interface {
	// Subscribe starts consuming messages from a topic
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	// Close closes the subscriber
	Close() error
}

// PubSub combines both Publisher and Subscriber interfaces
type PubSub interface {
	Publisher
	Subscriber
}
