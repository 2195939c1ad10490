package dal

import (
	"context"
	"sync"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

// MemoryDAL implements DraftDAL using in-memory storage
type MemoryDAL struct {
	mu       sync.RWMutex
	ready    bool
	players  map[string]models.DraftPlayer
	teams    map[string]models.Team
	settings *models.DraftSettings
	rankings map[models.Position]models.PositionRanking
}

// NewMemoryDAL creates an in-memory ledger. Call Init before use.
func NewMemoryDAL() *MemoryDAL {
	return &MemoryDAL{}
}

func (m *MemoryDAL) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return nil
	}
	m.players = make(map[string]models.DraftPlayer)
	m.teams = make(map[string]models.Team)
	m.rankings = make(map[models.Position]models.PositionRanking)
	m.ready = true
	return nil
}

func (m *MemoryDAL) UpsertPlayers(ctx context.Context, players []models.DraftPlayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}

	for _, p := range players {
		m.players[p.PlayerID] = p
	}
	return nil
}

func (m *MemoryDAL) UpsertTeams(ctx context.Context, teams []models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}

	for _, t := range teams {
		m.teams[t.ID] = t.Clone()
	}
	return nil
}

func (m *MemoryDAL) GetAllPlayers(ctx context.Context) ([]models.DraftPlayer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}

	players := make([]models.DraftPlayer, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	return players, nil
}

func (m *MemoryDAL) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}

	teams := make([]models.Team, 0, len(m.teams))
	for _, t := range m.teams {
		teams = append(teams, t.Clone())
	}
	return teams, nil
}

func (m *MemoryDAL) GetPlayersByDraftedStatus(ctx context.Context, drafted bool) ([]models.DraftPlayer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}

	var players []models.DraftPlayer
	for _, p := range m.players {
		if p.IsDrafted == drafted {
			players = append(players, p)
		}
	}
	return players, nil
}

func (m *MemoryDAL) DraftPlayer(ctx context.Context, playerID, teamID string) error {
	return m.updatePlayer(playerID, func(p *models.DraftPlayer) { p.Draft(teamID) })
}

func (m *MemoryDAL) UndraftPlayer(ctx context.Context, playerID string) error {
	return m.updatePlayer(playerID, func(p *models.DraftPlayer) { p.Undraft() })
}

func (m *MemoryDAL) updatePlayer(playerID string, fn func(*models.DraftPlayer)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}

	p, ok := m.players[playerID]
	if !ok {
		return notFound("player", playerID)
	}
	fn(&p)
	m.players[playerID] = p
	return nil
}

func (m *MemoryDAL) AddPlayerToTeam(ctx context.Context, teamID, playerID string) error {
	return m.updateTeam(teamID, func(t *models.Team) { t.AddPlayer(playerID) })
}

func (m *MemoryDAL) RemovePlayerFromTeam(ctx context.Context, teamID, playerID string) error {
	return m.updateTeam(teamID, func(t *models.Team) { t.RemovePlayer(playerID) })
}

func (m *MemoryDAL) updateTeam(teamID string, fn func(*models.Team)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}

	t, ok := m.teams[teamID]
	if !ok {
		return notFound("team", teamID)
	}
	t = t.Clone()
	fn(&t)
	m.teams[teamID] = t
	return nil
}

func (m *MemoryDAL) SaveSettings(ctx context.Context, settings models.DraftSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}

	settings.ID = models.SettingsID
	teams := make([]models.Team, len(settings.Teams))
	for i, t := range settings.Teams {
		teams[i] = t.Clone()
	}
	settings.Teams = teams
	m.settings = &settings
	return nil
}

func (m *MemoryDAL) GetSettings(ctx context.Context) (*models.DraftSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}
	if m.settings == nil {
		return nil, nil
	}

	s := *m.settings
	s.Teams = make([]models.Team, len(m.settings.Teams))
	for i, t := range m.settings.Teams {
		s.Teams[i] = t.Clone()
	}
	return &s, nil
}

func (m *MemoryDAL) SavePositionRanking(ctx context.Context, ranking models.PositionRanking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}

	weights := make(map[string]float64, len(ranking.Weights))
	for k, v := range ranking.Weights {
		weights[k] = v
	}
	ranking.Weights = weights
	m.rankings[ranking.Position] = ranking
	return nil
}

func (m *MemoryDAL) GetPositionRanking(ctx context.Context, position models.Position) (*models.PositionRanking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}

	r, ok := m.rankings[position]
	if !ok {
		return nil, nil
	}
	weights := make(map[string]float64, len(r.Weights))
	for k, v := range r.Weights {
		weights[k] = v
	}
	r.Weights = weights
	return &r, nil
}

func (m *MemoryDAL) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}

	m.players = make(map[string]models.DraftPlayer)
	m.teams = make(map[string]models.Team)
	m.rankings = make(map[models.Position]models.PositionRanking)
	m.settings = nil
	return nil
}

func (m *MemoryDAL) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return ErrNotInitialized
	}
	return nil
}

func (m *MemoryDAL) Close() error {
	return nil
}
