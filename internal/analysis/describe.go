package analysis

import (
	"github.com/montanaflynn/stats"

	"shelflife/domain/stability"
)

// Describe computes descriptive statistics of a group's values. Groups produced
// by Partition are never empty; an empty group yields a zero summary.
func Describe(group stability.AnalysisGroup) stability.GroupSummary {
	summary := stability.GroupSummary{
		Points:     len(group.Observations),
		Timepoints: group.DistinctTimes(),
	}
	if summary.Points == 0 {
		return summary
	}

	times := stats.Float64Data(group.Times())
	values := stats.Float64Data(group.Values())

	summary.MaxTime, _ = times.Max()
	summary.Mean, _ = values.Mean()
	summary.StdDev, _ = values.StandardDeviation()
	summary.Min, _ = values.Min()
	summary.Max, _ = values.Max()
	summary.Median, _ = values.Median()
	return summary
}
