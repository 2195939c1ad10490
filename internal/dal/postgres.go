package dal

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
)

var postgresDialect = dialect{
	name:     "postgres",
	numbered: true,
	lockRow:  " FOR UPDATE",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			position TEXT NOT NULL,
			is_drafted BOOLEAN NOT NULL DEFAULT false,
			drafted_by TEXT,
			data JSONB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_is_drafted ON players(is_drafted)`,
		`CREATE INDEX IF NOT EXISTS idx_players_drafted_by ON players(drafted_by)`,
		`CREATE INDEX IF NOT EXISTS idx_players_position ON players(position)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id TEXT PRIMARY KEY,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id TEXT PRIMARY KEY,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS position_rankings (
			position TEXT PRIMARY KEY,
			data JSONB NOT NULL
		)`,
	},
}

// PostgresDAL implements DraftDAL using PostgreSQL
type PostgresDAL struct {
	docStore
}

// NewPostgresDAL connects to connString, retrying while the server comes
// up, and creates the schema.
func NewPostgresDAL(ctx context.Context, connString string) (*PostgresDAL, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	// Sized for CloudNativePG's default max_connections of 100; connections
	// are recycled so failovers are picked up.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := pingWithRetry(ctx, db, 5, 5*time.Second); err != nil {
		db.Close()
		return nil, err
	}

	p := &PostgresDAL{docStore{db: db, dialect: postgresDialect}}
	if err := p.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// pingWithRetry tolerates DNS and startup delays in Kubernetes.
func pingWithRetry(ctx context.Context, db *sql.DB, attempts int, delay time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		logger.Warn("postgres not reachable yet", "attempt", i+1, "error", lastErr)
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "waiting for postgres")
			case <-time.After(delay):
			}
		}
	}
	return errors.Wrapf(lastErr, "ping postgres after %d attempts", attempts)
}
