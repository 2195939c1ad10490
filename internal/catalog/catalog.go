// Package catalog loads the fixed player catalog from per-position JSON
// fixture files.
package catalog

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

// Files maps each position to the fixture that holds its players.
var Files = map[models.Position]string{
	models.PositionGK:  "gk.json",
	models.PositionDEF: "def.json",
	models.PositionMID: "mid.json",
	models.PositionFWD: "fwd.json",
}

// Parse decodes one fixture array and tags every player with position.
func Parse(position models.Position, data []byte) ([]models.Player, error) {
	var players []models.Player
	if err := sonic.Unmarshal(data, &players); err != nil {
		return nil, errors.Wrapf(err, "decode %s catalog", position)
	}
	for i := range players {
		players[i].Position = position
	}
	return players, nil
}

// Load reads gk, def, mid and fwd fixtures from dir, in that order.
// A missing file is an error; an empty array is not.
func Load(dir string) ([]models.Player, error) {
	var all []models.Player
	for _, pos := range models.Positions {
		path := filepath.Join(dir, Files[pos])
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read catalog file %s", path)
		}
		players, err := Parse(pos, data)
		if err != nil {
			return nil, err
		}
		all = append(all, players...)
	}
	return all, nil
}

// Teams returns the distinct club names in the catalog, sorted.
func Teams(players []models.Player) []string {
	seen := make(map[string]struct{})
	for _, p := range players {
		if p.Team != "" {
			seen[p.Team] = struct{}{}
		}
	}
	teams := make([]string, 0, len(seen))
	for t := range seen {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}
