package dal

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			position TEXT NOT NULL,
			is_drafted INTEGER NOT NULL DEFAULT 0,
			drafted_by TEXT,
			data TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_is_drafted ON players(is_drafted)`,
		`CREATE INDEX IF NOT EXISTS idx_players_drafted_by ON players(drafted_by)`,
		`CREATE INDEX IF NOT EXISTS idx_players_position ON players(position)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS position_rankings (
			position TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
	},
}

// SQLiteDAL implements DraftDAL using SQLite
type SQLiteDAL struct {
	docStore
}

// NewSQLiteDAL opens dbPath and creates the schema.
func NewSQLiteDAL(ctx context.Context, dbPath string) (*SQLiteDAL, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// one writer at a time; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	s := &SQLiteDAL{docStore{db: db, dialect: sqliteDialect}}
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
