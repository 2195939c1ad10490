package query

import "github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"

// TableState holds one browsing session's controls. Changing position,
// team or sort sends the user back to page 1; predicate, logic and weight
// edits keep the current page, which Run clamps if it no longer exists.
type TableState struct {
	controls   Controls
	visibility Visibility
	search     string
}

func NewTableState() *TableState {
	return &TableState{
		controls: Controls{
			Filters: Filters{Position: All, Team: All, Logic: LogicAnd},
			Page:    1,
			Weights: Weights{},
		},
		visibility: Visibility{},
	}
}

// Controls returns a copy of the current controls.
func (s *TableState) Controls() Controls {
	c := s.controls
	c.Predicates = append([]Predicate(nil), s.controls.Predicates...)
	c.Weights = s.controls.Weights.Clamped()
	if s.controls.Sort != nil {
		cfg := *s.controls.Sort
		c.Sort = &cfg
	}
	return c
}

func (s *TableState) SetPosition(position string) {
	s.controls.Position = position
	s.controls.Page = 1
}

func (s *TableState) SetTeam(team string) {
	s.controls.Team = team
	s.controls.Page = 1
}

// SetSort replaces the sort outright.
func (s *TableState) SetSort(cfg *SortConfig) {
	s.controls.Sort = cfg
	s.controls.Page = 1
}

// ToggleSort sorts by key ascending, or descending when key is already
// the ascending sort.
func (s *TableState) ToggleSort(key string) {
	dir := Asc
	if cur := s.controls.Sort; cur != nil && cur.Key == key && cur.Direction == Asc {
		dir = Desc
	}
	s.SetSort(&SortConfig{Key: key, Direction: dir})
}

func (s *TableState) SetPage(page int) {
	s.controls.Page = page
}

func (s *TableState) SetLogic(logic Logic) {
	s.controls.Logic = logic
}

// AddPredicate appends a blank gte predicate on the first numeric column,
// falling back to total_points. It reports false once MaxPredicates exist.
func (s *TableState) AddPredicate(numeric []string) bool {
	if len(s.controls.Predicates) >= MaxPredicates {
		return false
	}
	col := "total_points"
	if len(numeric) > 0 {
		col = numeric[0]
	}
	s.controls.Predicates = append(s.controls.Predicates, Predicate{Column: col, Operator: OpGTE})
	return true
}

// UpdatePredicate replaces the predicate at i. Out of range is ignored.
func (s *TableState) UpdatePredicate(i int, p Predicate) {
	if i >= 0 && i < len(s.controls.Predicates) {
		s.controls.Predicates[i] = p
	}
}

func (s *TableState) RemovePredicate(i int) {
	if i >= 0 && i < len(s.controls.Predicates) {
		s.controls.Predicates = append(s.controls.Predicates[:i], s.controls.Predicates[i+1:]...)
	}
}

func (s *TableState) ClearPredicates() {
	s.controls.Predicates = nil
}

// SetWeight stores a clamped ranking weight.
func (s *TableState) SetWeight(column string, weight float64) {
	s.controls.Weights.Set(column, weight)
}

// ApplyRanking makes rank_score visible when the weights total 100 and
// reports whether it did.
func (s *TableState) ApplyRanking() bool {
	if !s.controls.Weights.Applied() {
		return false
	}
	s.visibility[KeyRankScore] = true
	return true
}

func (s *TableState) ToggleColumn(column string) {
	s.visibility.Toggle(column)
}

func (s *TableState) ShowAllColumns(columns []string) {
	s.visibility = AllVisible(columns)
}

func (s *TableState) ShowDefaultColumns(columns []string) {
	s.visibility = DefaultVisibility(columns)
}

// SetColumnSearch filters the column picker, not the table.
func (s *TableState) SetColumnSearch(term string) {
	s.search = term
}

// View runs the controls. The first view with a non-empty column universe
// seeds the default visibility.
func (s *TableState) View(players []models.DraftPlayer) View {
	v := Run(players, s.Controls())
	if len(s.visibility) == 0 && len(v.Columns) > 0 {
		s.visibility = DefaultVisibility(v.Columns)
	}
	v.VisibleColumns = s.visibility.Select(v.Columns)
	return v
}

// PickerColumns lists the columns matching the current column search.
func (s *TableState) PickerColumns(columns []string) []string {
	return SearchColumns(columns, s.search)
}

// ShowColumns makes exactly the listed columns visible.
func (s *TableState) ShowColumns(columns, shown []string) {
	s.visibility = make(Visibility, len(columns))
	for _, c := range columns {
		s.visibility[c] = false
	}
	for _, c := range shown {
		s.visibility[c] = true
	}
}
