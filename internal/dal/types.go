package dal

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

var (
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotInitialized is returned by any operation issued before Init.
	ErrNotInitialized = errors.New("ledger store not initialized")
)

// DraftDAL is the durable draft ledger. Every method other than ClearAll
// touches a single record of a single collection and commits or aborts as
// a unit. ClearAll wipes every collection.
type DraftDAL interface {
	// Init creates collections and indexes. Safe to call more than once.
	Init(ctx context.Context) error

	UpsertPlayers(ctx context.Context, players []models.DraftPlayer) error
	UpsertTeams(ctx context.Context, teams []models.Team) error
	GetAllPlayers(ctx context.Context) ([]models.DraftPlayer, error)
	GetAllTeams(ctx context.Context) ([]models.Team, error)
	GetPlayersByDraftedStatus(ctx context.Context, drafted bool) ([]models.DraftPlayer, error)

	// DraftPlayer marks the player drafted by teamID without checking any
	// previous owner.
	DraftPlayer(ctx context.Context, playerID, teamID string) error
	UndraftPlayer(ctx context.Context, playerID string) error

	AddPlayerToTeam(ctx context.Context, teamID, playerID string) error
	RemovePlayerFromTeam(ctx context.Context, teamID, playerID string) error

	SaveSettings(ctx context.Context, settings models.DraftSettings) error
	// GetSettings returns nil when no settings have been saved.
	GetSettings(ctx context.Context) (*models.DraftSettings, error)

	SavePositionRanking(ctx context.Context, ranking models.PositionRanking) error
	// GetPositionRanking returns nil when nothing is saved for position.
	GetPositionRanking(ctx context.Context, position models.Position) (*models.PositionRanking, error)

	ClearAll(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}

func notFound(kind, id string) error {
	return errors.Wrapf(ErrNotFound, "%s %q", kind, id)
}
