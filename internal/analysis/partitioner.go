package analysis

import (
	"sort"

	"shelflife/domain/stability"
)

// Partition splits the store into one group per (condition, parameter) pair.
// Groups come back sorted by key; observations within a group are sorted by time
// with ties kept in input order, so duplicated timepoints all contribute to the fit.
func Partition(store stability.Store) []stability.AnalysisGroup {
	buckets := make(map[stability.GroupKey][]stability.Observation)
	for _, obs := range store.Observations() {
		key := obs.Key()
		buckets[key] = append(buckets[key], obs)
	}

	groups := make([]stability.AnalysisGroup, 0, len(buckets))
	for key, observations := range buckets {
		sort.SliceStable(observations, func(i, j int) bool {
			return observations[i].Time < observations[j].Time
		})
		groups = append(groups, stability.AnalysisGroup{Key: key, Observations: observations})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key.Less(groups[j].Key)
	})
	return groups
}
