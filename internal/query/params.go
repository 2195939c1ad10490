package query

import (
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

// Params describe table controls in plain strings, the way URLs and tool
// calls carry them. Malformed values fall back to the inert default.
type Params struct {
	Position  string             `json:"position,omitempty"`
	Team      string             `json:"team,omitempty"`
	Sort      string             `json:"sort,omitempty"`
	Direction string             `json:"dir,omitempty"`
	Page      int                `json:"page,omitempty"`
	Logic     string             `json:"logic,omitempty"`
	Filters   []string           `json:"filters,omitempty"`
	Weights   map[string]float64 `json:"weights,omitempty"`
	// Columns is "all", "default" or a comma separated list.
	Columns string `json:"columns,omitempty"`
	// Toggle flips individual columns after Columns is applied.
	Toggle []string `json:"toggle,omitempty"`
	Search string   `json:"search,omitempty"`
}

// ParsePredicate reads "column:op:value". The value may itself contain
// colons.
func ParsePredicate(s string) (Predicate, bool) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Predicate{}, false
	}
	op := Operator(strings.ToLower(strings.TrimSpace(parts[1])))
	if op != OpGTE && op != OpLTE {
		return Predicate{}, false
	}
	col := strings.TrimSpace(parts[0])
	if col == "" {
		return Predicate{}, false
	}
	return Predicate{Column: col, Operator: op, Value: parts[2]}, true
}

// ParseWeight reads "column:value".
func ParseWeight(s string) (string, float64, bool) {
	col, val, ok := strings.Cut(s, ":")
	col = strings.TrimSpace(col)
	if !ok || col == "" {
		return "", 0, false
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return "", 0, false
	}
	return col, w, true
}

// State builds a TableState from the params.
func (p Params) State() *TableState {
	s := NewTableState()

	if pos := strings.ToUpper(strings.TrimSpace(p.Position)); pos != "" && (pos == All || models.Position(pos).Valid()) {
		s.SetPosition(pos)
	}
	if team := strings.TrimSpace(p.Team); team != "" {
		s.SetTeam(team)
	}
	if key := strings.TrimSpace(p.Sort); key != "" {
		s.SetSort(&SortConfig{Key: key, Direction: ParseDirection(p.Direction)})
	}
	s.SetLogic(ParseLogic(p.Logic))

	for _, raw := range p.Filters {
		pred, ok := ParsePredicate(raw)
		if !ok {
			continue
		}
		if !s.AddPredicate(nil) {
			break
		}
		s.UpdatePredicate(len(s.controls.Predicates)-1, pred)
	}
	for col, w := range p.Weights {
		s.SetWeight(col, w)
	}
	s.SetColumnSearch(p.Search)
	if p.Page > 0 {
		s.SetPage(p.Page)
	}
	return s
}

// View runs the params over players, resolving the column selection
// against the resulting column universe.
func (p Params) View(players []models.DraftPlayer) View {
	s := p.State()
	v := s.View(players)

	switch cols := strings.TrimSpace(p.Columns); strings.ToLower(cols) {
	case "":
	case "default":
		s.ShowDefaultColumns(v.Columns)
	case "all":
		s.ShowAllColumns(v.Columns)
	default:
		s.ShowColumns(v.Columns, splitList(cols))
	}
	for _, c := range p.Toggle {
		s.ToggleColumn(strings.TrimSpace(c))
	}
	s.ApplyRanking()
	v.VisibleColumns = s.visibility.Select(v.Columns)
	if p.Search != "" {
		v.PickerColumns = append([]string{}, s.PickerColumns(v.Columns)...)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
