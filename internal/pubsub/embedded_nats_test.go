package pubsub

import (
	"testing"
	"time"
)

func startEmbedded(t *testing.T) *EmbeddedNATSPubSub {
	t.Helper()
	ps, err := NewEmbeddedNATSPubSub(DefaultEmbeddedNATSOptions())
	if err != nil {
		t.Fatalf("start embedded NATS: %v", err)
	}
	t.Cleanup(ps.Close)
	return ps
}

func TestDefaultEmbeddedNATSOptions(t *testing.T) {
	opts := DefaultEmbeddedNATSOptions()
	if opts.Port != -1 || opts.Subject != DefaultSubject || opts.StreamName != DefaultStream || opts.StoreDir != "" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestEmbeddedNATSRoundTrip(t *testing.T) {
	ps := startEmbedded(t)
	if ps.ServerURL() == "" {
		t.Fatal("server URL should not be empty")
	}

	ch := ps.Subscribe()
	ps.Publish(NewEvent(EventDraftPick, map[string]any{"playerId": "Salah-Liverpool", "teamId": "team-2"}))

	select {
	case e := <-ch:
		if e.Type != EventDraftPick {
			t.Fatalf("type = %s", e.Type)
		}
		if e.Payload["teamId"] != "team-2" {
			t.Fatalf("payload lost in transit: %+v", e.Payload)
		}
		if e.At.IsZero() {
			t.Fatal("timestamp lost in transit")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event from JetStream")
	}
}

func TestEmbeddedNATSBehindPubSub(t *testing.T) {
	ps := NewWithUpstream(startEmbedded(t))
	a, b := ps.Subscribe(), ps.Subscribe()

	ps.Publish(NewEvent(EventDraftReset, nil))

	for i, ch := range []chan Event{a, b} {
		select {
		case e := <-ch:
			if e.Type != EventDraftReset {
				t.Errorf("subscriber %d got %s", i, e.Type)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("subscriber %d: timeout", i)
		}
	}
}

func TestEmbeddedNATSUnsubscribe(t *testing.T) {
	ps := startEmbedded(t)
	ch := ps.Subscribe()
	if ps.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", ps.SubscriberCount())
	}
	ps.Unsubscribe(ch)
	if ps.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", ps.SubscriberCount())
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
}
