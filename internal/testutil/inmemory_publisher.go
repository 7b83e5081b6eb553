package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/keygate/keygate/internal/notification"
)

// InMemoryLifecyclePublisher records published lifecycle events for
// assertions.
type InMemoryLifecyclePublisher struct {
	mu     sync.Mutex
	events []*notification.LifecycleEvent
	signal chan struct{}
}

func NewInMemoryLifecyclePublisher() *InMemoryLifecyclePublisher {
	return &InMemoryLifecyclePublisher{
		signal: make(chan struct{}, 16),
	}
}

func (p *InMemoryLifecyclePublisher) Publish(ctx context.Context, event *notification.LifecycleEvent) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()

	select {
	case p.signal <- struct{}{}:
	default:
	}
	return nil
}

// Events returns the events recorded so far.
func (p *InMemoryLifecyclePublisher) Events() []*notification.LifecycleEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*notification.LifecycleEvent, len(p.events))
	copy(out, p.events)
	return out
}

// WaitForEvent blocks until at least one event has been published or the
// timeout elapses. Publishing is asynchronous relative to the caller's
// response, so tests must wait rather than assert immediately.
func (p *InMemoryLifecyclePublisher) WaitForEvent(timeout time.Duration) bool {
	p.mu.Lock()
	if len(p.events) > 0 {
		p.mu.Unlock()
		return true
	}
	p.mu.Unlock()

	select {
	case <-p.signal:
		return true
	case <-time.After(timeout):
		return false
	}
}
