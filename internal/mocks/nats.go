package mocks

import (
	"sync"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/pubsub"
)

// MockNATSPubSub stands in for the JetStream upstream during local
// development. It keeps the last few events like a small stream would.
type MockNATSPubSub struct {
	*pubsub.PubSub

	mu      sync.Mutex
	history []pubsub.Event
	keep    int
}

// NewMockNATSPubSub creates a mock NATS pub/sub using the in-memory implementation
func NewMockNATSPubSub(keep int) *MockNATSPubSub {
	logger.Info("Using MOCK NATS/JetStream (in-memory pub/sub) for local development")

	return &MockNATSPubSub{PubSub: pubsub.New(), keep: keep}
}

func (m *MockNATSPubSub) Publish(e pubsub.Event) {
	m.mu.Lock()
	m.history = append(m.history, e)
	if m.keep > 0 && len(m.history) > m.keep {
		m.history = m.history[len(m.history)-m.keep:]
	}
	m.mu.Unlock()

	m.PubSub.Publish(e)
}

// History returns the retained events, oldest first.
func (m *MockNATSPubSub) History() []pubsub.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pubsub.Event(nil), m.history...)
}

// Close is a no-op for mock
func (m *MockNATSPubSub) Close() {}
