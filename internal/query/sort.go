package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts asc/desc in any case; anything else is asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// SortConfig orders rows by a single key.
type SortConfig struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Sorter compares row values: numbers numerically, strings with locale
// collation, anything else by its display text. A Sorter is not safe for
// concurrent use.
type Sorter struct {
	coll *collate.Collator
}

// NewSorter builds a sorter for tag, typically language.English.
func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{coll: collate.New(tag)}
}

// Compare returns a negative, zero or positive result.
func (s *Sorter) Compare(a, b models.Value) int {
	switch {
	case a.IsNumber() && b.IsNumber():
		x, y := a.NumberValue(), b.NumberValue()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case a.IsString() && b.IsString():
		return s.coll.CompareString(a.Str(), b.Str())
	}
	return s.coll.CompareString(sortText(a), sortText(b))
}

// sortText is the text used when the two sides differ in kind. Zero,
// false, blank and missing values all read as "".
func sortText(v models.Value) string {
	if !v.Truthy() {
		return ""
	}
	return v.Text()
}

// Sort orders rows in place by cfg. Equal rows keep their relative order.
// A nil cfg or empty key leaves rows untouched.
func (s *Sorter) Sort(rows []Row, cfg *SortConfig) {
	if cfg == nil || cfg.Key == "" {
		return
	}
	desc := cfg.Direction == Desc
	sort.SliceStable(rows, func(i, j int) bool {
		c := s.Compare(rows[i].Get(cfg.Key), rows[j].Get(cfg.Key))
		if desc {
			return c > 0
		}
		return c < 0
	})
}
