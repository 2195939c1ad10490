package mocks

import (
	"context"
	"sync"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/pubsub"
)

// MockClickHouseClient keeps the draft event history in memory for local
// development.
type MockClickHouseClient struct {
	mu     sync.Mutex
	events []pubsub.Event
}

// NewMockClickHouseClient creates a mock ClickHouse sink
func NewMockClickHouseClient() *MockClickHouseClient {
	logger.Info("Using MOCK ClickHouse (in-memory event history) for local development")
	return &MockClickHouseClient{}
}

func (m *MockClickHouseClient) RecordEvent(_ context.Context, e pubsub.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// PickCounts counts draft:pick events per team since the last reset.
func (m *MockClickHouseClient) PickCounts(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int)
	for _, e := range m.events {
		switch e.Type {
		case pubsub.EventDraftReset:
			counts = make(map[string]int)
		case pubsub.EventDraftPick:
			if team, ok := e.Payload["teamId"].(string); ok {
				counts[team]++
			}
		}
	}
	return counts, nil
}

// Events returns a copy of everything recorded so far.
func (m *MockClickHouseClient) Events() []pubsub.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pubsub.Event(nil), m.events...)
}

// Close is a no-op for mock client
func (m *MockClickHouseClient) Close() error {
	return nil
}
