package stability

import (
	"fmt"
	"sort"
	"strings"

	"shelflife/domain/core"
)

// Category is the regulatory class of a storage condition
type Category string

const (
	CategoryLongTerm    Category = "long_term"
	CategoryAccelerated Category = "accelerated"
)

// Valid reports whether c is a recognized category
func (c Category) Valid() bool {
	return c == CategoryLongTerm || c == CategoryAccelerated
}

// Label returns the human-readable form used in rationale text
func (c Category) Label() string {
	switch c {
	case CategoryLongTerm:
		return "long-term"
	case CategoryAccelerated:
		return "accelerated"
	default:
		return string(c)
	}
}

// ParseCategory accepts "long_term", "long-term", "longterm" and "accelerated" in any case
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch norm {
	case "long_term", "longterm":
		return CategoryLongTerm, nil
	case "accelerated":
		return CategoryAccelerated, nil
	}
	return "", fmt.Errorf("unknown condition category %q", s)
}

// CategoryLookup maps a condition identifier to its category
type CategoryLookup interface {
	Category(condition string) (Category, error)
}

// ConditionTable is the map-backed CategoryLookup
type ConditionTable map[string]Category

// DefaultConditions returns the ICH climatic-zone table shipped with the engine
func DefaultConditions() ConditionTable {
	return ConditionTable{
		"25C_60RH": CategoryLongTerm,
		"30C_65RH": CategoryLongTerm,
		"40C_75RH": CategoryAccelerated,
	}
}

// Category implements CategoryLookup. Unrecognized identifiers are an error, never a default.
func (t ConditionTable) Category(condition string) (Category, error) {
	category, ok := t[condition]
	if !ok || !category.Valid() {
		return "", core.NewUnknownConditionError(condition)
	}
	return category, nil
}

// Merge returns a new table with other's entries layered over t
func (t ConditionTable) Merge(other ConditionTable) ConditionTable {
	merged := make(ConditionTable, len(t)+len(other))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Conditions returns the table's identifiers, sorted
func (t ConditionTable) Conditions() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
