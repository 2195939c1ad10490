package query

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

// KeyRankScore is the synthetic column added by ranking.
const KeyRankScore = "rank_score"

// MaxWeight is both the per-attribute cap and the total a ranking needs
// before it counts as applied.
const MaxWeight = 100

// Row is a player as seen by the query engine, optionally carrying a
// rank score.
type Row struct {
	models.DraftPlayer
	RankScore float64
	Ranked    bool
}

// Get resolves key against the row, including rank_score when ranked.
func (r Row) Get(key string) models.Value {
	if key == KeyRankScore {
		if !r.Ranked {
			return models.Value{}
		}
		return models.Number(r.RankScore)
	}
	return r.DraftPlayer.Get(key)
}

// Keys lists the row's attributes.
func (r Row) Keys() []string {
	keys := r.DraftPlayer.Keys()
	if r.Ranked {
		keys = append(keys, KeyRankScore)
	}
	return keys
}

func (r Row) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(r.DraftPlayer)
	if err != nil || !r.Ranked {
		return base, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	score, err := json.Marshal(r.RankScore)
	if err != nil {
		return nil, err
	}
	m[KeyRankScore] = score
	return json.Marshal(m)
}

// Weights maps attribute names to ranking weights in [0,100].
type Weights map[string]float64

// ClampWeight bounds w to [0,100]. NaN becomes 0.
func ClampWeight(w float64) float64 {
	if math.IsNaN(w) || w < 0 {
		return 0
	}
	if w > MaxWeight {
		return MaxWeight
	}
	return w
}

// Set stores a clamped weight for column.
func (w Weights) Set(column string, weight float64) {
	w[column] = ClampWeight(weight)
}

// Total sums all weights.
func (w Weights) Total() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// Applied reports whether the weights add up to exactly 100, the point at
// which a ranking is shown as active.
func (w Weights) Applied() bool {
	return w.Total() == MaxWeight
}

// Clamped returns a copy with every weight clamped.
func (w Weights) Clamped() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = ClampWeight(v)
	}
	return out
}

// Score computes sum(value*weight/100) over positive weights. Values that
// are missing or not numeric count as 0.
func Score(p models.DraftPlayer, w Weights) float64 {
	cols := make([]string, 0, len(w))
	for col, weight := range w {
		if weight > 0 {
			cols = append(cols, col)
		}
	}
	// fixed summation order keeps scores reproducible
	sort.Strings(cols)

	var score float64
	for _, col := range cols {
		score += p.Get(col).FloatOrZero() * w[col] / 100
	}
	return score
}

// Rank wraps players as rows. When every weight is 0 no row gets a
// rank_score.
func Rank(players []models.DraftPlayer, w Weights) []Row {
	rows := make([]Row, len(players))
	ranked := w.Total() != 0
	for i, p := range players {
		rows[i] = Row{DraftPlayer: p}
		if ranked {
			rows[i].RankScore = Score(p, w)
			rows[i].Ranked = true
		}
	}
	return rows
}
