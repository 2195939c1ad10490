package mocks

import (
	"context"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/dal"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
)

// MockPostgresDAL stands in for Postgres with a SQLite file, for running
// the postgres driver locally without a server.
type MockPostgresDAL struct {
	dal.DraftDAL
}

// NewMockPostgresDAL creates a mock Postgres DAL using SQLite
func NewMockPostgresDAL(ctx context.Context, sqliteFile string) (*MockPostgresDAL, error) {
	logger.Info("Using MOCK Postgres (SQLite) for local development", "file", sqliteFile)

	sqliteDAL, err := dal.NewSQLiteDAL(ctx, sqliteFile)
	if err != nil {
		return nil, err
	}

	return &MockPostgresDAL{DraftDAL: sqliteDAL}, nil
}
