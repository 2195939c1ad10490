package mocks

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/pubsub"
)

func init() {
	logger.InitWithWriter(io.Discard, "error")
}

func pick(team string) pubsub.Event {
	return pubsub.NewEvent(pubsub.EventDraftPick, map[string]any{"playerId": "p", "teamId": team})
}

func TestMockClickHousePickCountsSinceReset(t *testing.T) {
	ctx := context.Background()
	ch := NewMockClickHouseClient()

	for _, e := range []pubsub.Event{
		pick("team-1"),
		pubsub.NewEvent(pubsub.EventDraftReset, nil),
		pick("team-1"),
		pick("team-2"),
		pick("team-1"),
		pubsub.NewEvent(pubsub.EventDraftUndraft, map[string]any{"teamId": "team-1"}),
	} {
		if err := ch.RecordEvent(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	counts, err := ch.PickCounts(ctx)
	if err != nil {
		t.Fatalf("pick counts: %v", err)
	}
	if counts["team-1"] != 2 || counts["team-2"] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	if len(ch.Events()) != 6 {
		t.Errorf("expected 6 events, got %d", len(ch.Events()))
	}
}

func TestMockNATSKeepsBoundedHistory(t *testing.T) {
	m := NewMockNATSPubSub(2)
	sub := m.Subscribe()
	defer m.Unsubscribe(sub)

	m.Publish(pick("team-1"))
	m.Publish(pick("team-2"))
	m.Publish(pick("team-3"))

	h := m.History()
	if len(h) != 2 || h[0].Payload["teamId"] != "team-2" {
		t.Fatalf("unexpected history %+v", h)
	}
	if got := (<-sub).Payload["teamId"]; got != "team-1" {
		t.Errorf("subscriber should see every event, first was %v", got)
	}
}

func TestMockPostgresIsALedgerStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewMockPostgresDAL(ctx, filepath.Join(t.TempDir(), "mock.sqlite"))
	if err != nil {
		t.Fatalf("new mock postgres: %v", err)
	}
	defer store.Close()

	p := models.NewDraftPlayer(models.Player{WebName: "Saka", Team: "Arsenal", Position: models.PositionMID})
	if err := store.UpsertPlayers(ctx, []models.DraftPlayer{p}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	players, err := store.GetAllPlayers(ctx)
	if err != nil || len(players) != 1 || players[0].PlayerID != "Saka-Arsenal" {
		t.Fatalf("unexpected players %v (err %v)", players, err)
	}
}
