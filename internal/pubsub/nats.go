package pubsub

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
)

const (
	DefaultSubject = "ledger.events"
	DefaultStream  = "LEDGER_EVENTS"
)

// jetStreamBridge publishes events to a JetStream subject and fans
// everything received on that subject out to local channels.
type jetStreamBridge struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	sub     *nats.Subscription
	subject string

	mu          sync.RWMutex
	subscribers []chan Event
}

func newJetStreamBridge(nc *nats.Conn, stream nats.StreamConfig) (*jetStreamBridge, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, errors.Wrap(err, "create JetStream context")
	}

	if _, err := js.StreamInfo(stream.Name); err != nil {
		if _, err := js.AddStream(&stream); err != nil {
			return nil, errors.Wrapf(err, "create stream %s", stream.Name)
		}
		logger.Info("JetStream stream created", "stream", stream.Name, "subjects", stream.Subjects)
	}

	b := &jetStreamBridge{nc: nc, js: js, subject: stream.Subjects[0]}
	b.sub, err = js.Subscribe(b.subject, b.deliver, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return nil, errors.Wrapf(err, "subscribe %s", b.subject)
	}
	return b, nil
}

func (b *jetStreamBridge) deliver(msg *nats.Msg) {
	var event Event
	if err := sonic.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("discarding undecodable ledger event", "error", err)
		_ = msg.Term()
		return
	}

	b.mu.RLock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warn("jetstream: dropping event for slow subscriber", "type", event.Type)
		}
	}
	b.mu.RUnlock()

	_ = msg.Ack()
}

func (b *jetStreamBridge) Publish(event Event) {
	data, err := sonic.Marshal(event)
	if err != nil {
		logger.Error("failed to encode ledger event", "error", err, "type", event.Type)
		return
	}
	if _, err := b.js.Publish(b.subject, data); err != nil {
		logger.Error("failed to publish ledger event", "error", err, "subject", b.subject, "type", event.Type)
		return
	}
	logger.Debug("published ledger event", "type", event.Type, "subject", b.subject)
}

func (b *jetStreamBridge) Subscribe() chan Event {
	ch := make(chan Event, 100)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()
	return ch
}

func (b *jetStreamBridge) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// SubscriberCount returns the number of active local subscribers.
func (b *jetStreamBridge) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *jetStreamBridge) close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}

	b.mu.Lock()
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
	b.mu.Unlock()

	if b.nc != nil {
		b.nc.Close()
	}
}

// NATSPubSub carries ledger events over an external NATS JetStream server
// so every instance sees every change.
type NATSPubSub struct {
	*jetStreamBridge
}

// NewNATSPubSub connects to natsURL and ensures a file-backed stream on
// subject exists.
func NewNATSPubSub(natsURL, subject string) (*NATSPubSub, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(natsURL,
		nats.Name("fpl-draft-ledger"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect to NATS")
	}

	b, err := newJetStreamBridge(nc, nats.StreamConfig{
		Name:     DefaultStream,
		Subjects: []string{subject},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, err
	}
	return &NATSPubSub{b}, nil
}

// Close drops the subscription and connection.
func (p *NATSPubSub) Close() {
	p.close()
}
