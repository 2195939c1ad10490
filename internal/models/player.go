package models

import (
	"encoding/json"
	"sort"
)

// Position is a player's playing position, tagged by the catalog file the
// player was loaded from.
type Position string

const (
	PositionGK  Position = "GK"
	PositionDEF Position = "DEF"
	PositionMID Position = "MID"
	PositionFWD Position = "FWD"
)

// Positions lists every position in squad order.
var Positions = []Position{PositionGK, PositionDEF, PositionMID, PositionFWD}

// Valid reports whether p is one of the four known positions.
func (p Position) Valid() bool {
	switch p {
	case PositionGK, PositionDEF, PositionMID, PositionFWD:
		return true
	}
	return false
}

// Attribute keys with a fixed meaning on every player.
const (
	KeyFirstName     = "first_name"
	KeySecondName    = "second_name"
	KeyWebName       = "web_name"
	KeyTeam          = "team"
	KeyNowCost       = "now_cost"
	KeyTotalPoints   = "total_points"
	KeyPointsPerGame = "points_per_game"
	KeyImage         = "image"
	KeyPosition      = "position"

	KeyID        = "id"
	KeyIsDrafted = "isDrafted"
	KeyDraftedBy = "draftedBy"
)

// Player is one catalog entry. Fields beyond the fixed set live in Stats.
// Players are immutable once loaded.
type Player struct {
	FirstName     string
	SecondName    string
	WebName       string
	Team          string
	NowCost       Value
	TotalPoints   Value
	PointsPerGame Value
	Image         string
	Position      Position
	Stats         map[string]Value
}

// PlayerID derives the stable ledger key for a catalog player.
func PlayerID(webName, team string) string {
	return webName + "-" + team
}

// ID returns the player's ledger key.
func (p Player) ID() string {
	return PlayerID(p.WebName, p.Team)
}

// Get returns the attribute stored under key.
func (p Player) Get(key string) Value {
	switch key {
	case KeyFirstName:
		return String(p.FirstName)
	case KeySecondName:
		return String(p.SecondName)
	case KeyWebName:
		return String(p.WebName)
	case KeyTeam:
		return String(p.Team)
	case KeyNowCost:
		return p.NowCost
	case KeyTotalPoints:
		return p.TotalPoints
	case KeyPointsPerGame:
		return p.PointsPerGame
	case KeyImage:
		return String(p.Image)
	case KeyPosition:
		return String(string(p.Position))
	}
	return p.Stats[key]
}

// Keys lists every attribute present on the player.
func (p Player) Keys() []string {
	keys := []string{
		KeyFirstName, KeySecondName, KeyWebName, KeyTeam,
		KeyNowCost, KeyTotalPoints, KeyPointsPerGame, KeyImage, KeyPosition,
	}
	extra := make([]string, 0, len(p.Stats))
	for k, v := range p.Stats {
		if !v.IsAbsent() {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func (p Player) attrs() map[string]Value {
	m := make(map[string]Value, len(p.Stats)+9)
	for k, v := range p.Stats {
		m[k] = v
	}
	m[KeyFirstName] = String(p.FirstName)
	m[KeySecondName] = String(p.SecondName)
	m[KeyWebName] = String(p.WebName)
	m[KeyTeam] = String(p.Team)
	m[KeyNowCost] = p.NowCost
	m[KeyTotalPoints] = p.TotalPoints
	m[KeyPointsPerGame] = p.PointsPerGame
	m[KeyImage] = String(p.Image)
	m[KeyPosition] = String(string(p.Position))
	return m
}

func (p *Player) setAttrs(m map[string]Value) {
	p.FirstName = m[KeyFirstName].Text()
	p.SecondName = m[KeySecondName].Text()
	p.WebName = m[KeyWebName].Text()
	p.Team = m[KeyTeam].Text()
	p.NowCost = m[KeyNowCost]
	p.TotalPoints = m[KeyTotalPoints]
	p.PointsPerGame = m[KeyPointsPerGame]
	p.Image = m[KeyImage].Text()
	p.Position = Position(m[KeyPosition].Text())

	p.Stats = make(map[string]Value, len(m))
	for k, v := range m {
		switch k {
		case KeyFirstName, KeySecondName, KeyWebName, KeyTeam, KeyNowCost,
			KeyTotalPoints, KeyPointsPerGame, KeyImage, KeyPosition,
			KeyID, KeyIsDrafted, KeyDraftedBy:
			continue
		}
		p.Stats[k] = v
	}
}

// MarshalJSON writes the player as one flat object.
func (p Player) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.attrs())
}

func (p *Player) UnmarshalJSON(data []byte) error {
	var m map[string]Value
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	p.setAttrs(m)
	return nil
}

// DraftPlayer is a catalog player annotated with its ledger state.
// IsDrafted is true exactly when DraftedBy is non-empty.
type DraftPlayer struct {
	Player
	PlayerID  string
	IsDrafted bool
	DraftedBy string
}

// NewDraftPlayer wraps a catalog player as undrafted.
func NewDraftPlayer(p Player) DraftPlayer {
	return DraftPlayer{Player: p, PlayerID: p.ID()}
}

// Draft assigns the player to teamID.
func (d *DraftPlayer) Draft(teamID string) {
	d.IsDrafted = true
	d.DraftedBy = teamID
}

// Undraft clears any team assignment.
func (d *DraftPlayer) Undraft() {
	d.IsDrafted = false
	d.DraftedBy = ""
}

// Get extends Player.Get with the ledger keys.
func (d DraftPlayer) Get(key string) Value {
	switch key {
	case KeyID:
		return String(d.PlayerID)
	case KeyIsDrafted:
		return Bool(d.IsDrafted)
	case KeyDraftedBy:
		if d.DraftedBy == "" {
			return Value{}
		}
		return String(d.DraftedBy)
	}
	return d.Player.Get(key)
}

// Keys lists the catalog keys followed by the ledger keys that are set.
func (d DraftPlayer) Keys() []string {
	keys := append(d.Player.Keys(), KeyID, KeyIsDrafted)
	if d.DraftedBy != "" {
		keys = append(keys, KeyDraftedBy)
	}
	return keys
}

func (d DraftPlayer) MarshalJSON() ([]byte, error) {
	m := d.Player.attrs()
	m[KeyID] = String(d.PlayerID)
	m[KeyIsDrafted] = Bool(d.IsDrafted)
	if d.DraftedBy != "" {
		m[KeyDraftedBy] = String(d.DraftedBy)
	}
	return json.Marshal(m)
}

func (d *DraftPlayer) UnmarshalJSON(data []byte) error {
	var m map[string]Value
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	d.Player.setAttrs(m)
	d.PlayerID = m[KeyID].Text()
	if d.PlayerID == "" {
		d.PlayerID = d.Player.ID()
	}
	d.DraftedBy = m[KeyDraftedBy].Text()
	d.IsDrafted = d.DraftedBy != ""
	return nil
}
