package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/memhooks/pkg/eventstream"
)

// RecordingPublisher keeps every published hook event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.HookDispatchedEvent

	// Fail makes every publish return an error.
	Fail bool
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) PublishHook(_ context.Context, event *eventstream.HookDispatchedEvent) error {
	if event == nil {
		return eventstream.ErrNilHookEvent
	}
	if p.Fail {
		return errors.New("mock publish failure")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Events() []*eventstream.HookDispatchedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.HookDispatchedEvent(nil), p.events...)
}

func (p *RecordingPublisher) Close() error {
	return nil
}
