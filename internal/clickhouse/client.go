// Package clickhouse records ledger change events for pick analytics.
package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/pubsub"
)

// Sink stores ledger events and answers pick-count queries.
type Sink interface {
	RecordEvent(ctx context.Context, e pubsub.Event) error
	PickCounts(ctx context.Context) (map[string]int, error)
	Close() error
}

const schema = `
	CREATE TABLE IF NOT EXISTS draft_events (
		event_type       LowCardinality(String),
		at               DateTime64(3, 'UTC'),
		player_id        String,
		team_id          String,
		previous_team_id String,
		payload          String
	) ENGINE = MergeTree
	ORDER BY (event_type, at)
`

// Client writes events to the draft_events table.
type Client struct {
	conn driver.Conn
}

// Options identify the ClickHouse server.
type Options struct {
	Addr     string
	Database string
	Username string
	Password string
}

// NewClient connects, pings and makes sure the events table exists.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to clickhouse")
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "ping clickhouse")
	}

	c := &Client{conn: conn}
	if err := c.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	return errors.Wrap(c.conn.Exec(ctx, schema), "create draft_events")
}

// RecordEvent appends one event. Player and team ids are lifted out of the
// payload into their own columns.
func (c *Client) RecordEvent(ctx context.Context, e pubsub.Event) error {
	row, err := newEventRow(e)
	if err != nil {
		return err
	}
	err = c.conn.Exec(ctx,
		`INSERT INTO draft_events (event_type, at, player_id, team_id, previous_team_id, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		row.Type, row.At, row.PlayerID, row.TeamID, row.PreviousTeamID, row.Payload)
	return errors.Wrapf(err, "insert %s event", e.Type)
}

// PickCounts counts picks per team since the most recent reset.
func (c *Client) PickCounts(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT team_id, toInt64(count()) AS picks
		FROM draft_events
		WHERE event_type = 'draft:pick'
		AND at > (SELECT max(at) FROM draft_events WHERE event_type = 'draft:reset')
		GROUP BY team_id
	`

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "query pick counts")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			team  string
			picks int64
		)
		if err := rows.Scan(&team, &picks); err != nil {
			return nil, errors.Wrap(err, "scan pick count")
		}
		counts[team] = int(picks)
	}
	return counts, errors.Wrap(rows.Err(), "read pick counts")
}

func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// EventRow is the flattened form of an event as stored.
type EventRow struct {
	Type           string
	At             time.Time
	PlayerID       string
	TeamID         string
	PreviousTeamID string
	Payload        string
}

func newEventRow(e pubsub.Event) (EventRow, error) {
	row := EventRow{
		Type:           string(e.Type),
		At:             e.At.UTC(),
		PlayerID:       payloadString(e.Payload, "playerId"),
		TeamID:         payloadString(e.Payload, "teamId"),
		PreviousTeamID: payloadString(e.Payload, "previousTeamId"),
		Payload:        "{}",
	}
	if row.At.IsZero() {
		row.At = time.Now().UTC()
	}
	if len(e.Payload) > 0 {
		b, err := sonic.Marshal(e.Payload)
		if err != nil {
			return EventRow{}, errors.Wrap(err, "encode event payload")
		}
		row.Payload = string(b)
	}
	return row, nil
}

func payloadString(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
