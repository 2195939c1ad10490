package draft

import (
	"context"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

// Players returns every ledger player, ordered by id.
func (s *Service) Players() []models.DraftPlayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DraftPlayer(nil), s.players...)
}

// Teams returns the teams in creation order.
func (s *Service) Teams() []models.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Team, len(s.teams))
	for i, t := range s.teams {
		out[i] = t.Clone()
	}
	return out
}

// Team looks up one team by id.
func (s *Service) Team(teamID string) (models.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teams {
		if t.ID == teamID {
			return t.Clone(), true
		}
	}
	return models.Team{}, false
}

// Settings returns a copy of the settings singleton, or nil before setup.
func (s *Service) Settings() *models.DraftSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil
	}
	cp := *s.settings
	cp.Teams = make([]models.Team, len(s.settings.Teams))
	for i, t := range s.settings.Teams {
		cp.Teams[i] = t.Clone()
	}
	return &cp
}

// IsSetUp reports whether teams have been created.
func (s *Service) IsSetUp() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.teams) > 0
}

// State returns the whole snapshot.
func (s *Service) State() models.DraftState {
	return models.DraftState{
		Players:  s.Players(),
		Teams:    s.Teams(),
		Settings: s.Settings(),
	}
}

func (s *Service) filterPlayers(keep func(models.DraftPlayer) bool) []models.DraftPlayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.DraftPlayer{}
	for _, p := range s.players {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) AvailablePlayers() []models.DraftPlayer {
	return s.filterPlayers(func(p models.DraftPlayer) bool { return !p.IsDrafted })
}

func (s *Service) DraftedPlayers() []models.DraftPlayer {
	return s.filterPlayers(func(p models.DraftPlayer) bool { return p.IsDrafted })
}

// TeamRoster lists the players whose draftedBy is teamID. The team's own
// player list is not consulted.
func (s *Service) TeamRoster(teamID string) []models.DraftPlayer {
	return s.filterPlayers(func(p models.DraftPlayer) bool { return p.DraftedBy == teamID })
}

// Annotate overlays ledger draft state onto catalog players, keeping the
// catalog's order. With an empty catalog the ledger players are returned.
func (s *Service) Annotate(catalog []models.Player) []models.DraftPlayer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(catalog) == 0 {
		return append([]models.DraftPlayer(nil), s.players...)
	}

	byID := make(map[string]models.DraftPlayer, len(s.players))
	for _, p := range s.players {
		byID[p.PlayerID] = p
	}
	out := make([]models.DraftPlayer, len(catalog))
	for i, p := range catalog {
		dp := models.NewDraftPlayer(p)
		if ledger, ok := byID[dp.PlayerID]; ok && ledger.IsDrafted {
			dp.Draft(ledger.DraftedBy)
		}
		out[i] = dp
	}
	return out
}

// Summary aggregates the snapshot. Position limits and squad size are
// reported for display; nothing enforces them.
func (s *Service) Summary() models.DraftSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := models.DraftSummary{
		TotalPlayers:   len(s.players),
		TotalTeams:     len(s.teams),
		IsActive:       s.settings != nil && s.settings.IsActive,
		PositionLimits: make(map[models.Position]int, len(models.PositionLimits)),
		SquadSize:      models.SquadSize,
		Teams:          make([]models.TeamSummary, 0, len(s.teams)),
	}
	for pos, n := range models.PositionLimits {
		sum.PositionLimits[pos] = n
	}

	counts := make(map[string]map[models.Position]int, len(s.teams))
	for _, p := range s.players {
		if !p.IsDrafted {
			continue
		}
		sum.DraftedPlayers++
		if counts[p.DraftedBy] == nil {
			counts[p.DraftedBy] = make(map[models.Position]int)
		}
		counts[p.DraftedBy][p.Position]++
	}
	sum.AvailablePlayers = sum.TotalPlayers - sum.DraftedPlayers

	for _, t := range s.teams {
		ts := models.TeamSummary{
			TeamID:    t.ID,
			Team:      t.Name,
			Owner:     t.Owner,
			Positions: make(map[models.Position]int, len(models.Positions)),
		}
		for _, pos := range models.Positions {
			n := counts[t.ID][pos]
			ts.Positions[pos] = n
			ts.PlayersCount += n
			if n > models.PositionLimits[pos] {
				ts.OverLimit = append(ts.OverLimit, pos)
			}
		}
		ts.Complete = ts.PlayersCount >= models.SquadSize
		sum.Teams = append(sum.Teams, ts)
	}
	return sum
}

// Ping checks that the ledger store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
