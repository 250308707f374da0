package nop

import (
	"context"

	"github.com/papercomputeco/memhooks/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishHook validates input and otherwise does nothing.
func (p *Publisher) PublishHook(_ context.Context, event *eventstream.HookDispatchedEvent) error {
	if event == nil {
		return eventstream.ErrNilHookEvent
	}
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
