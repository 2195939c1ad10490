package models

import "time"

// Team represents a draft team. Players is a replica of the roster; the
// authoritative membership is DraftPlayer.DraftedBy.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	Players   []string  `json:"players"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasPlayer reports whether the replica lists playerID.
func (t Team) HasPlayer(playerID string) bool {
	for _, id := range t.Players {
		if id == playerID {
			return true
		}
	}
	return false
}

// AddPlayer appends playerID unless already present.
func (t *Team) AddPlayer(playerID string) {
	if !t.HasPlayer(playerID) {
		t.Players = append(t.Players, playerID)
	}
}

// RemovePlayer drops every occurrence of playerID.
func (t *Team) RemovePlayer(playerID string) {
	kept := t.Players[:0]
	for _, id := range t.Players {
		if id != playerID {
			kept = append(kept, id)
		}
	}
	t.Players = kept
}

// Clone returns a copy whose Players slice is not shared.
func (t Team) Clone() Team {
	t.Players = append([]string(nil), t.Players...)
	if t.Players == nil {
		t.Players = []string{}
	}
	return t
}

// SettingsID is the fixed key of the settings singleton.
const SettingsID = "draft-settings"

// DraftSettings is the singleton describing the current draft.
type DraftSettings struct {
	ID        string    `json:"id"`
	Teams     []Team    `json:"teams"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PositionRanking stores the ranking weights a user saved for one position.
type PositionRanking struct {
	Position  Position           `json:"position"`
	Weights   map[string]float64 `json:"weights"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// DraftState is the complete ledger snapshot.
type DraftState struct {
	Players  []DraftPlayer  `json:"players"`
	Teams    []Team         `json:"teams"`
	Settings *DraftSettings `json:"settings"`
}

// Advisory squad shape. Displayed only, never enforced.
var PositionLimits = map[Position]int{
	PositionGK:  2,
	PositionDEF: 5,
	PositionMID: 5,
	PositionFWD: 3,
}

const SquadSize = 15

// TeamSummary is one team's line in a DraftSummary.
type TeamSummary struct {
	TeamID       string           `json:"teamId"`
	Team         string           `json:"team"`
	Owner        string           `json:"owner"`
	PlayersCount int              `json:"playersCount"`
	Positions    map[Position]int `json:"positions"`
	Complete     bool             `json:"complete"`
	OverLimit    []Position       `json:"overLimit,omitempty"`
}

// DraftSummary aggregates the ledger for display.
type DraftSummary struct {
	TotalPlayers     int              `json:"totalPlayers"`
	DraftedPlayers   int              `json:"draftedPlayers"`
	AvailablePlayers int              `json:"availablePlayers"`
	TotalTeams       int              `json:"totalTeams"`
	IsActive         bool             `json:"isActive"`
	PositionLimits   map[Position]int `json:"positionLimits"`
	SquadSize        int              `json:"squadSize"`
	Teams            []TeamSummary    `json:"teams"`
}
