package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/memhooks/pkg/eventstream"
	"github.com/papercomputeco/memhooks/pkg/eventstream/kafka"
	"github.com/papercomputeco/memhooks/pkg/hook"
	"github.com/papercomputeco/memhooks/pkg/session"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		w *recordingWriter
		p *kafka.Publisher
	)

	BeforeEach(func() {
		w = &recordingWriter{}
		var err error
		p, err = kafka.NewPublisher(kafka.Config{Writer: w})
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires brokers and a topic without an injected writer", func() {
		_, err := kafka.NewPublisher(kafka.Config{Topic: "t"})
		Expect(err).To(MatchError(ContainSubstring("brokers")))

		_, err = kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
		Expect(err).To(MatchError(ContainSubstring("topic")))
	})

	It("writes the event as JSON keyed by session id", func() {
		ev := eventstream.NewHookEvent(hook.EventSessionInit,
			hook.NormalizedInput{SessionID: "s-1", Cwd: "/repo", Platform: hook.PlatformCursor},
			session.State{SessionID: "s-1"},
		)
		Expect(p.PublishHook(context.Background(), ev)).To(Succeed())

		Expect(w.msgs).To(HaveLen(1))
		Expect(string(w.msgs[0].Key)).To(Equal("s-1"))

		var decoded map[string]any
		Expect(json.Unmarshal(w.msgs[0].Value, &decoded)).To(Succeed())
		Expect(decoded["kind"]).To(Equal("session-init"))
		Expect(decoded["platform"]).To(Equal("cursor"))
	})

	It("rejects nil events", func() {
		Expect(p.PublishHook(context.Background(), nil)).To(MatchError(eventstream.ErrNilHookEvent))
	})

	It("wraps writer failures", func() {
		w.err = errors.New("broker down")
		err := p.PublishHook(context.Background(), &eventstream.HookDispatchedEvent{})
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})
})
