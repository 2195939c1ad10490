package pubsub

import (
	"sync"
	"time"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
)

// EventType names a ledger change.
type EventType string

const (
	EventPlayersInit  EventType = "players:init"
	EventDraftSetup   EventType = "draft:setup"
	EventDraftPick    EventType = "draft:pick"
	EventDraftUndraft EventType = "draft:undraft"
	EventDraftReset   EventType = "draft:reset"
	EventRankingsSave EventType = "rankings:save"
)

// Event is a ledger change notification. Events are informational; readers
// that need state reload it from the draft service.
type Event struct {
	Type    EventType      `json:"type"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

// NewEvent stamps an event of type typ with the current time.
func NewEvent(typ EventType, payload map[string]any) Event {
	return Event{Type: typ, At: time.Now().UTC(), Payload: payload}
}

// Publisher is the write side used by the draft service.
type Publisher interface {
	Publish(Event)
}

// Upstream is a broker that fans events out across instances.
type Upstream interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// PubSub delivers events to in-process subscribers, optionally relaying
// them through an Upstream broker first.
type PubSub struct {
	mu          sync.RWMutex
	subscribers []chan Event
	upstream    Upstream
	bufferSize  int
}

// New creates an in-process PubSub.
func New() *PubSub {
	return &PubSub{subscribers: []chan Event{}, bufferSize: 16}
}

// NewWithUpstream creates a PubSub whose Publish goes to upstream. Events
// arriving from upstream, including our own, reach local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := New()
	ps.upstream = upstream

	ch := upstream.Subscribe()
	go func() {
		for event := range ch {
			ps.publishLocal(event)
		}
		logger.Debug("pubsub: upstream channel closed")
	}()

	return ps
}

// Subscribe registers a buffered channel for events.
func (ps *PubSub) Subscribe() chan Event {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan Event, ps.bufferSize)
	ps.subscribers = append(ps.subscribers, ch)
	logger.Debug("pubsub: subscriber added", "subscribers", len(ps.subscribers))
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for i, sub := range ps.subscribers {
		if sub == ch {
			close(ch)
			ps.subscribers = append(ps.subscribers[:i], ps.subscribers[i+1:]...)
			return
		}
	}
}

// SubscriberCount reports the number of local subscribers.
func (ps *PubSub) SubscriberCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers)
}

// Publish delivers event. With an upstream configured the event only
// reaches local subscribers once it comes back from the broker.
func (ps *PubSub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if ps.upstream != nil {
		ps.upstream.Publish(event)
		return
	}
	ps.publishLocal(event)
}

// publishLocal never blocks; full subscriber buffers drop the event.
func (ps *PubSub) publishLocal(event Event) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, ch := range ps.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warn("pubsub: dropping event for slow subscriber", "type", event.Type)
		}
	}
}
