// Package async decouples event publishing from the hook hot path: events go
// into a bounded queue drained by background workers, so a slow or
// unreachable stream backend never delays the host.
package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/memhooks/pkg/eventstream"
	"github.com/papercomputeco/memhooks/pkg/logger"
)

var (
	defaultNumWorkers uint = 2
	defaultQueueSize  uint = 256
)

var (
	// ErrQueueFull is returned when an event is dropped because the queue
	// is at capacity.
	ErrQueueFull = errors.New("event queue full, event dropped")

	// ErrClosed is returned when publishing after Close.
	ErrClosed = errors.New("publisher closed")
)

// Config is the configuration options for the async publisher.
type Config struct {
	// Publisher is the backend events are delivered to.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers draining the queue.
	NumWorkers uint

	// QueueSize is the capacity of the buffered event channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Publisher queues events for delivery by a worker pool.
type Publisher struct {
	inner  eventstream.Publisher
	queue  chan *eventstream.HookDispatchedEvent
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates an async publisher and starts its workers.
func NewPublisher(c Config) (*Publisher, error) {
	if c.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	p := &Publisher{
		inner:  c.Publisher,
		queue:  make(chan *eventstream.HookDispatchedEvent, c.QueueSize),
		logger: l.With("component", "eventstream"),
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// PublishHook queues event without blocking. The error only reports whether
// the event was accepted; delivery failures are logged by the workers.
func (p *Publisher) PublishHook(_ context.Context, event *eventstream.HookDispatchedEvent) error {
	if event == nil {
		return eventstream.ErrNilHookEvent
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- event:
		p.logger.Debug("event queued", "kind", event.Kind, "session", event.Session.SessionID)
		return nil
	default:
		p.logger.Error("event not queued, queue full, event dropped",
			"kind", event.Kind,
			"session", event.Session.SessionID,
		)
		return ErrQueueFull
	}
}

// Close stops accepting events, waits for queued events to drain and then
// closes the backend.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.inner.Close()
}

// worker delivers queued events until the queue is closed.
func (p *Publisher) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("publish worker started", "worker_id", id)

	for event := range p.queue {
		if err := p.inner.PublishHook(context.Background(), event); err != nil {
			p.logger.Warn("publishing hook event failed",
				"kind", event.Kind,
				"session", event.Session.SessionID,
				"error", err,
			)
		}
	}

	p.logger.Debug("publish worker stopped", "worker_id", id)
}
