package domain

import (
	"cmp"
	"maps"
	"slices"
)

// AggregateStats are reading statistics computed by the backend from the
// user's library. The core passes them through without recomputing them.
type AggregateStats struct {
	GenreCounts map[string]int `json:"genre_counts"`
	MonthCounts map[string]int `json:"month_counts"`
}

// Months returns the month keys in ascending order.
func (s *AggregateStats) Months() []string {
	return slices.Sorted(maps.Keys(s.MonthCounts))
}

// Genres returns the genre keys ordered by count (descending), then name.
func (s *AggregateStats) Genres() []string {
	keys := slices.Collect(maps.Keys(s.GenreCounts))
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(s.GenreCounts[b], s.GenreCounts[a]),
			cmp.Compare(a, b),
		)
	})
	return keys
}
