// Package query turns the player set and a user's table controls into a
// ranked, filtered, sorted and paginated view.
package query

import (
	"golang.org/x/text/language"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

// Controls are the inputs to one query.
type Controls struct {
	Filters
	Sort    *SortConfig
	Page    int
	Weights Weights
}

// View is the result of running Controls over a player set.
type View struct {
	// Rows is the current page.
	Rows []Row `json:"rows"`
	// Matched holds every row that passed the filters, in sorted order.
	Matched        []Row    `json:"-"`
	Total          int      `json:"total"`
	Page           Page     `json:"pagination"`
	Columns        []string `json:"columns"`
	VisibleColumns []string `json:"visibleColumns,omitempty"`
	// PickerColumns is the column picker narrowed by a column search.
	PickerColumns  []string `json:"pickerColumns"`
	NumericColumns []string `json:"numericColumns"`
	TotalWeight    float64  `json:"totalWeight"`
	RankingApplied bool     `json:"rankingApplied"`
}

// Run executes rank, filter, sort and paginate in that order. Players are
// never modified.
func Run(players []models.DraftPlayer, c Controls) View {
	weights := c.Weights.Clamped()
	ranked := Rank(players, weights)

	matched := c.Filters.Apply(ranked)
	NewSorter(language.English).Sort(matched, c.Sort)

	page := Paginate(len(matched), c.Page)
	columns := Columns(ranked)

	return View{
		Rows:           matched[page.Start:page.End],
		Matched:        matched,
		Total:          len(matched),
		Page:           page,
		Columns:        columns,
		NumericColumns: NumericColumns(Rank(players, nil), columns),
		TotalWeight:    weights.Total(),
		RankingApplied: weights.Applied(),
	}
}
