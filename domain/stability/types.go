package stability

import (
	"sort"
)

// Observation is one measured stability data point
type Observation struct {
	Time      float64 `json:"time" validate:"finite,gte=0"`  // Months since study start
	Condition string  `json:"condition" validate:"required"` // Storage condition identifier, e.g. "25C_60RH"
	Parameter string  `json:"parameter" validate:"required"` // Quality attribute, e.g. "assay"
	Value     float64 `json:"value" validate:"finite"`       // Result in the parameter's native unit
}

// Key returns the group this observation belongs to
func (o Observation) Key() GroupKey {
	return GroupKey{Condition: o.Condition, Parameter: o.Parameter}
}

// GroupKey identifies one analysis unit
type GroupKey struct {
	Condition string `json:"condition"`
	Parameter string `json:"parameter"`
}

func (k GroupKey) String() string {
	return k.Condition + "/" + k.Parameter
}

// Less orders keys by condition, then parameter
func (k GroupKey) Less(other GroupKey) bool {
	if k.Condition != other.Condition {
		return k.Condition < other.Condition
	}
	return k.Parameter < other.Parameter
}

// AnalysisGroup holds all observations sharing one (condition, parameter) pair,
// ordered by time ascending. Treat it as read-only once formed.
type AnalysisGroup struct {
	Key          GroupKey
	Observations []Observation
}

// Times returns the time column in group order
func (g AnalysisGroup) Times() []float64 {
	times := make([]float64, len(g.Observations))
	for i, obs := range g.Observations {
		times[i] = obs.Time
	}
	return times
}

// Values returns the value column in group order
func (g AnalysisGroup) Values() []float64 {
	values := make([]float64, len(g.Observations))
	for i, obs := range g.Observations {
		values[i] = obs.Value
	}
	return values
}

// DistinctTimes returns the number of distinct timepoints in the group
func (g AnalysisGroup) DistinctTimes() int {
	return CountDistinct(g.Times())
}

// CountDistinct counts distinct values in xs
func CountDistinct(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}

// RegressionResult is the ordinary least-squares line value = Slope*time + Intercept
type RegressionResult struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	Points    int     `json:"points"`
}

// Predict evaluates the fitted line at t
func (r RegressionResult) Predict(t float64) float64 {
	return r.Slope*t + r.Intercept
}

// ShelfLifeEstimate is the time at which the fitted line crosses the specification limit.
// Months is reported as solved; Expired is a presentation hint for crossings at or before time zero.
type ShelfLifeEstimate struct {
	Months    float64 `json:"months"`
	SpecLimit float64 `json:"spec_limit"`
	Expired   bool    `json:"expired"`
}

// Verdict is the tri-state qualification outcome
type Verdict string

const (
	VerdictQualified           Verdict = "qualified"
	VerdictQualifiedWithCaveat Verdict = "qualified_with_caveat"
	VerdictNotQualified        Verdict = "not_qualified"
)

// CriterionResult records one evaluated qualification rule
type CriterionResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// QualificationVerdict is the ICH judgment for one group
type QualificationVerdict struct {
	Verdict   Verdict           `json:"verdict"`
	Category  Category          `json:"category"`
	Rationale string            `json:"rationale"`
	Criteria  []CriterionResult `json:"criteria"`
}

// FailureKind classifies a group-scoped failure
type FailureKind string

const (
	FailureInsufficientData   FailureKind = "insufficient_data"
	FailureUndefinedShelfLife FailureKind = "undefined_shelf_life"
	FailureUnknownCondition   FailureKind = "unknown_condition"
	FailureInternal           FailureKind = "internal"
)

// Failure is attached to a report when one stage could not produce its result
type Failure struct {
	Stage   string      `json:"stage"` // "regression", "shelf_life" or "qualification"
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// GroupSummary holds descriptive statistics of one group
type GroupSummary struct {
	Points     int     `json:"points"`
	Timepoints int     `json:"timepoints"` // Distinct time values
	MaxTime    float64 `json:"max_time"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Median     float64 `json:"median"`
}

// AnalysisReport is the terminal output for one group. Regression, ShelfLife and
// Qualification are nil when their stage failed; the reason is in Failures.
type AnalysisReport struct {
	Condition     string                `json:"condition"`
	Parameter     string                `json:"parameter"`
	Summary       GroupSummary          `json:"summary"`
	Regression    *RegressionResult     `json:"regression,omitempty"`
	ShelfLife     *ShelfLifeEstimate    `json:"shelf_life,omitempty"`
	Qualification *QualificationVerdict `json:"qualification,omitempty"`
	Failures      []Failure             `json:"failures,omitempty"`
}

// Key returns the report's group key
func (r AnalysisReport) Key() GroupKey {
	return GroupKey{Condition: r.Condition, Parameter: r.Parameter}
}

// Failed reports whether any stage failed for this group
func (r AnalysisReport) Failed() bool {
	return len(r.Failures) > 0
}

// FailureFor returns the failure recorded for a stage, if any
func (r AnalysisReport) FailureFor(stage string) (Failure, bool) {
	for _, f := range r.Failures {
		if f.Stage == stage {
			return f, true
		}
	}
	return Failure{}, false
}

// SortReports orders reports by (condition, parameter)
func SortReports(reports []AnalysisReport) {
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Key().Less(reports[j].Key())
	})
}
