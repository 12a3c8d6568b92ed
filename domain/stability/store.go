package stability

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"shelflife/domain/core"
)

// Store is the normalized set of stability measurements for one analysis run.
// The engine only reads from it.
type Store struct {
	observations []Observation
}

// NewStore creates a store holding a copy of obs
func NewStore(obs ...Observation) Store {
	s := Store{observations: make([]Observation, len(obs))}
	copy(s.observations, obs)
	return s
}

// Add returns a new store with obs appended
func (s Store) Add(obs ...Observation) Store {
	merged := make([]Observation, 0, len(s.observations)+len(obs))
	merged = append(merged, s.observations...)
	merged = append(merged, obs...)
	return Store{observations: merged}
}

// Len returns the number of observations
func (s Store) Len() int {
	return len(s.observations)
}

// Observations returns a copy of the stored observations in insertion order
func (s Store) Observations() []Observation {
	out := make([]Observation, len(s.observations))
	copy(out, s.observations)
	return out
}

// Conditions returns the distinct condition identifiers, sorted
func (s Store) Conditions() []string {
	return s.distinct(func(o Observation) string { return o.Condition })
}

// Parameters returns the distinct parameter identifiers, sorted
func (s Store) Parameters() []string {
	return s.distinct(func(o Observation) string { return o.Parameter })
}

func (s Store) distinct(field func(Observation) string) []string {
	seen := make(map[string]struct{})
	for _, obs := range s.observations {
		seen[field(obs)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Fingerprint identifies the (store, spec limit) input independent of observation order
func (s Store) Fingerprint(specLimit float64) core.Hash {
	lines := make([]string, len(s.observations))
	for i, obs := range s.observations {
		lines[i] = fmt.Sprintf("%s\x1f%s\x1f%s\x1f%s",
			obs.Condition, obs.Parameter,
			strconv.FormatFloat(obs.Time, 'g', -1, 64),
			strconv.FormatFloat(obs.Value, 'g', -1, 64))
	}
	sort.Strings(lines)

	var b strings.Builder
	b.WriteString(strconv.FormatFloat(specLimit, 'g', -1, 64))
	for _, line := range lines {
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return core.NewHash([]byte(b.String()))
}

// ValidateSpecLimit rejects limits that cannot produce a finite crossing
func ValidateSpecLimit(specLimit float64) error {
	if math.IsNaN(specLimit) || math.IsInf(specLimit, 0) {
		return fmt.Errorf("%w: %v", core.ErrInvalidSpecLimit, specLimit)
	}
	return nil
}
