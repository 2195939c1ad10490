package draft

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

// mockStore is a scripted dal.DraftDAL.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Init(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) UpsertPlayers(ctx context.Context, players []models.DraftPlayer) error {
	return m.Called(ctx, players).Error(0)
}

func (m *mockStore) UpsertTeams(ctx context.Context, teams []models.Team) error {
	return m.Called(ctx, teams).Error(0)
}

func (m *mockStore) GetAllPlayers(ctx context.Context) ([]models.DraftPlayer, error) {
	args := m.Called(ctx)
	players, _ := args.Get(0).([]models.DraftPlayer)
	return players, args.Error(1)
}

func (m *mockStore) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	args := m.Called(ctx)
	teams, _ := args.Get(0).([]models.Team)
	return teams, args.Error(1)
}

func (m *mockStore) GetPlayersByDraftedStatus(ctx context.Context, drafted bool) ([]models.DraftPlayer, error) {
	args := m.Called(ctx, drafted)
	players, _ := args.Get(0).([]models.DraftPlayer)
	return players, args.Error(1)
}

func (m *mockStore) DraftPlayer(ctx context.Context, playerID, teamID string) error {
	return m.Called(ctx, playerID, teamID).Error(0)
}

func (m *mockStore) UndraftPlayer(ctx context.Context, playerID string) error {
	return m.Called(ctx, playerID).Error(0)
}

func (m *mockStore) AddPlayerToTeam(ctx context.Context, teamID, playerID string) error {
	return m.Called(ctx, teamID, playerID).Error(0)
}

func (m *mockStore) RemovePlayerFromTeam(ctx context.Context, teamID, playerID string) error {
	return m.Called(ctx, teamID, playerID).Error(0)
}

func (m *mockStore) SaveSettings(ctx context.Context, settings models.DraftSettings) error {
	return m.Called(ctx, settings).Error(0)
}

func (m *mockStore) GetSettings(ctx context.Context) (*models.DraftSettings, error) {
	args := m.Called(ctx)
	settings, _ := args.Get(0).(*models.DraftSettings)
	return settings, args.Error(1)
}

func (m *mockStore) SavePositionRanking(ctx context.Context, ranking models.PositionRanking) error {
	return m.Called(ctx, ranking).Error(0)
}

func (m *mockStore) GetPositionRanking(ctx context.Context, position models.Position) (*models.PositionRanking, error) {
	args := m.Called(ctx, position)
	ranking, _ := args.Get(0).(*models.PositionRanking)
	return ranking, args.Error(1)
}

func (m *mockStore) ClearAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
