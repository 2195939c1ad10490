package query

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PriorityColumns lead the column universe when present.
var PriorityColumns = []string{
	KeyRankScore, "image", "web_name", "position", "team",
	"now_cost", "total_points", "points_per_game",
}

// DefaultVisibleColumns are shown until the user picks otherwise.
var DefaultVisibleColumns = []string{
	"image", "web_name", "position", "team",
	"goals_scored", "assists", "total_points", "points_per_game",
}

// identifier keys that hold numbers but are not stats
var nonStatColumns = map[string]bool{"id": true, "team_code": true}

// Columns returns every key seen on any row: priority columns first, then
// the rest alphabetically.
func Columns(rows []Row) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, k := range r.Keys() {
			seen[k] = true
		}
	}

	out := make([]string, 0, len(seen))
	priority := make(map[string]bool, len(PriorityColumns))
	for _, k := range PriorityColumns {
		priority[k] = true
		if seen[k] {
			out = append(out, k)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		if !priority[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// NumericColumns picks the columns whose value on the first unranked row
// is a number. Only that one row is inspected, so a stat that happens to
// be missing or textual there is left out even if other rows carry it.
func NumericColumns(unranked []Row, columns []string) []string {
	if len(unranked) == 0 {
		return []string{}
	}
	sample := unranked[0]
	out := []string{}
	for _, col := range columns {
		if nonStatColumns[col] {
			continue
		}
		if sample.Get(col).IsNumber() {
			out = append(out, col)
		}
	}
	return out
}

// FormatHeader turns snake_case into title-cased words.
func FormatHeader(column string) string {
	caser := cases.Title(language.Und)
	words := strings.Split(column, "_")
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// SearchColumns keeps columns whose header contains term, ignoring case.
func SearchColumns(columns []string, term string) []string {
	if term == "" {
		return columns
	}
	needle := strings.ToLower(term)
	var out []string
	for _, col := range columns {
		if strings.Contains(strings.ToLower(FormatHeader(col)), needle) {
			out = append(out, col)
		}
	}
	return out
}

// Visibility records per-column show/hide choices. Columns with no entry
// are visible.
type Visibility map[string]bool

// DefaultVisibility marks only the default columns as visible.
func DefaultVisibility(columns []string) Visibility {
	defaults := make(map[string]bool, len(DefaultVisibleColumns))
	for _, c := range DefaultVisibleColumns {
		defaults[c] = true
	}
	v := make(Visibility, len(columns))
	for _, c := range columns {
		v[c] = defaults[c]
	}
	return v
}

// AllVisible marks every column visible.
func AllVisible(columns []string) Visibility {
	v := make(Visibility, len(columns))
	for _, c := range columns {
		v[c] = true
	}
	return v
}

// Visible reports whether column is shown.
func (v Visibility) Visible(column string) bool {
	shown, ok := v[column]
	return !ok || shown
}

// Toggle flips one column.
func (v Visibility) Toggle(column string) {
	v[column] = !v.Visible(column)
}

// Select returns the visible subset of columns, in order.
func (v Visibility) Select(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if v.Visible(c) {
			out = append(out, c)
		}
	}
	return out
}
