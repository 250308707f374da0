// Package kafka publishes hook events to a Kafka topic, keyed by session id
// so all events of one session land on the same partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/memhooks/pkg/eventstream"
)

const defaultWriteTimeout = 5 * time.Second

// MessageWriter is the part of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures a Publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds each publish. Defaults to 5s.
	WriteTimeout time.Duration

	// Writer replaces the kafka-go writer, mainly for tests.
	Writer MessageWriter
}

// Publisher writes HookDispatchedEvents as JSON messages.
type Publisher struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewPublisher creates a synchronous Kafka publisher.
func NewPublisher(c Config) (*Publisher, error) {
	timeout := c.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	w := c.Writer
	if w == nil {
		if len(c.Brokers) == 0 {
			return nil, errors.New("kafka brokers are required")
		}
		if c.Topic == "" {
			return nil, errors.New("kafka topic is required")
		}
		w = &kafkago.Writer{
			Addr:                   kafkago.TCP(c.Brokers...),
			Topic:                  c.Topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			WriteTimeout:           timeout,
			AllowAutoTopicCreation: true,
		}
	}

	return &Publisher{writer: w, timeout: timeout}, nil
}

// PublishHook writes one event.
func (p *Publisher) PublishHook(ctx context.Context, event *eventstream.HookDispatchedEvent) error {
	if event == nil {
		return eventstream.ErrNilHookEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding hook event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.Session.SessionID),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "kind", Value: []byte(event.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("writing hook event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
