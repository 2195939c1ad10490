package query

import (
	"strings"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

// All disables the position or team filter.
const All = "ALL"

// MaxPredicates caps the number of numeric predicates.
const MaxPredicates = 5

type Operator string

const (
	OpGTE Operator = "gte"
	OpLTE Operator = "lte"
)

// Logic combines active predicates.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// ParseLogic accepts and/or in any case; anything else is AND.
func ParseLogic(s string) Logic {
	if strings.EqualFold(strings.TrimSpace(s), string(LogicOr)) {
		return LogicOr
	}
	return LogicAnd
}

// Predicate is a numeric threshold on one column. Value is kept as typed
// text; blank or non-numeric values make the predicate inert.
type Predicate struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Threshold returns the numeric bound and whether the predicate takes
// part in filtering.
func (p Predicate) Threshold() (float64, bool) {
	if p.Column == "" || (p.Operator != OpGTE && p.Operator != OpLTE) {
		return 0, false
	}
	if strings.TrimSpace(p.Value) == "" {
		return 0, false
	}
	return models.ParseNumber(p.Value)
}

// Active reports whether the predicate filters anything.
func (p Predicate) Active() bool {
	_, ok := p.Threshold()
	return ok
}

// Match evaluates an active predicate against a row. A row whose value
// cannot be read as a number fails.
func (p Predicate) Match(r Row) bool {
	bound, _ := p.Threshold()
	v, ok := r.Get(p.Column).Float()
	if !ok {
		return false
	}
	if p.Operator == OpGTE {
		return v >= bound
	}
	return v <= bound
}

// Filters groups the row filters applied before sorting.
type Filters struct {
	Position   string
	Team       string
	Predicates []Predicate
	Logic      Logic
}

func matchesChoice(choice, value string) bool {
	return choice == "" || choice == All || choice == value
}

// Apply keeps rows that match position, team and the active predicates,
// preserving input order.
func (f Filters) Apply(rows []Row) []Row {
	active := make([]Predicate, 0, len(f.Predicates))
	for i, p := range f.Predicates {
		if i == MaxPredicates {
			break
		}
		if p.Active() {
			active = append(active, p)
		}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !matchesChoice(f.Position, string(r.Position)) || !matchesChoice(f.Team, r.Team) {
			continue
		}
		if len(active) > 0 && !combine(active, f.Logic, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func combine(preds []Predicate, logic Logic, r Row) bool {
	if logic == LogicOr {
		for _, p := range preds {
			if p.Match(r) {
				return true
			}
		}
		return false
	}
	for _, p := range preds {
		if !p.Match(r) {
			return false
		}
	}
	return true
}
