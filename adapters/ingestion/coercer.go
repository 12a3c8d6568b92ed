// Package ingestion turns loosely formatted tabular stability data into validated observations.
package ingestion

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"shelflife/adapters/excel"
	"shelflife/domain/core"
	"shelflife/domain/stability"
	"shelflife/internal"
)

// StandardTimepoints are the customary pull points, in months, of an ICH stability protocol
var StandardTimepoints = []float64{0, 1, 3, 6, 9, 12, 18, 24, 36, 48}

// Column aliases, compared after normalization
var (
	timeAliases      = []string{"time", "month", "months", "timepoint", "time_months", "time_point", "t"}
	conditionAliases = []string{"condition", "storage", "storage_condition", "study_condition"}
	parameterAliases = []string{"parameter", "attribute", "test", "quality_attribute"}
	valueAliases     = []string{"value", "result", "measurement", "reading"}
)

var timeHeaderPattern = regexp.MustCompile(`^(?i)(?:t)?\s*(\d+(?:\.\d+)?)\s*(?:m|mo|month|months)?$`)

// initialAliases name the month-0 pull, as a cell value or a wide-layout header
var initialAliases = []string{"initial", "t0", "release"}

// Coercer maps raw rows into Observations
type Coercer struct {
	validate *validator.Validate
	logger   *internal.Logger
}

// NewCoercer creates a coercer with the finite-number rule registered
func NewCoercer() *Coercer {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.Float64 {
			return false
		}
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return &Coercer{
		validate: v,
		logger:   internal.DefaultLogger.WithComponent("Coercer"),
	}
}

// Result is the outcome of one ingestion pass
type Result struct {
	Observations []stability.Observation
	Issues       []stability.RowIssue
}

// FromSheet coerces a parsed sheet, detecting long or wide layout
func (c *Coercer) FromSheet(data *excel.SheetData) (Result, error) {
	if data == nil {
		return Result{}, fmt.Errorf("no sheet data")
	}
	return c.FromRows(data.Headers, data.Rows)
}

// FromRows coerces header-keyed rows. Long layout needs time, condition,
// parameter and value columns; wide layout has condition and parameter plus
// one column per timepoint. Bad rows become issues and never abort the batch.
func (c *Coercer) FromRows(headers []string, rows []excel.RawRowData) (Result, error) {
	cols := resolveColumns(headers)
	if cols.condition == "" || cols.parameter == "" {
		return Result{}, fmt.Errorf("missing required columns: need condition and parameter, got %v", headers)
	}

	var result Result
	switch {
	case cols.time != "" && cols.value != "":
		result = c.fromLong(cols, rows)
	case len(cols.timepoints) > 0:
		result = c.fromWide(cols, rows)
	default:
		return Result{}, fmt.Errorf("missing required columns: need time and value, or timepoint columns such as 0, 3M, 6M")
	}

	c.logger.Info("coerced %d rows into %d observations (%d issues)", len(rows), len(result.Observations), len(result.Issues))
	return result, nil
}

func (c *Coercer) fromLong(cols columns, rows []excel.RawRowData) Result {
	var result Result
	for i, row := range rows {
		rowNum := i + 1
		if blank(row) {
			continue
		}
		t, err := ParseMonths(row[cols.time])
		if err != nil {
			result.Issues = append(result.Issues, stability.RowIssue{Row: rowNum, Reason: fmt.Sprintf("%s: %v", cols.time, err)})
			continue
		}
		v, err := ParseNumber(row[cols.value])
		if err != nil {
			result.Issues = append(result.Issues, stability.RowIssue{Row: rowNum, Reason: fmt.Sprintf("%s: %v", cols.value, err)})
			continue
		}
		obs := stability.Observation{
			Time:      t,
			Condition: strings.TrimSpace(row[cols.condition]),
			Parameter: strings.TrimSpace(row[cols.parameter]),
			Value:     v,
		}
		if err := c.Validate(obs); err != nil {
			result.Issues = append(result.Issues, stability.RowIssue{Row: rowNum, Reason: err.Error()})
			continue
		}
		result.Observations = append(result.Observations, obs)
	}
	return result
}

// fromWide melts one row per (condition, parameter) into one observation per
// filled timepoint cell. Empty cells are pulls not yet tested.
func (c *Coercer) fromWide(cols columns, rows []excel.RawRowData) Result {
	var result Result
	for i, row := range rows {
		rowNum := i + 1
		if blank(row) {
			continue
		}
		for _, tp := range cols.timepoints {
			raw := strings.TrimSpace(row[tp.header])
			if raw == "" {
				continue
			}
			v, err := ParseNumber(raw)
			if err != nil {
				result.Issues = append(result.Issues, stability.RowIssue{Row: rowNum, Reason: fmt.Sprintf("%s: %v", tp.header, err)})
				continue
			}
			obs := stability.Observation{
				Time:      tp.months,
				Condition: strings.TrimSpace(row[cols.condition]),
				Parameter: strings.TrimSpace(row[cols.parameter]),
				Value:     v,
			}
			if err := c.Validate(obs); err != nil {
				result.Issues = append(result.Issues, stability.RowIssue{Row: rowNum, Reason: err.Error()})
				break
			}
			result.Observations = append(result.Observations, obs)
		}
	}
	return result
}

// FromSeries builds observations for one group from parallel slices, as entered
// on a manual form. NaN values mark untested pulls and are skipped.
func (c *Coercer) FromSeries(condition, parameter string, times, values []float64) ([]stability.Observation, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("times and values differ in length: %d != %d", len(times), len(values))
	}
	observations := make([]stability.Observation, 0, len(times))
	for i := range times {
		if math.IsNaN(values[i]) {
			continue
		}
		obs := stability.Observation{Time: times[i], Condition: condition, Parameter: parameter, Value: values[i]}
		if err := c.Validate(obs); err != nil {
			return nil, fmt.Errorf("point %d: %w", i+1, err)
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

// Validate checks an observation's struct rules and returns the first violation
// as an invalid-observation error
func (c *Coercer) Validate(obs stability.Observation) error {
	err := c.validate.Struct(obs)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return core.NewInvalidObservationError(strings.ToLower(fe.Field()), describeRule(fe))
	}
	return err
}

// ValidateAll checks each observation, collecting issues by 1-based position
func (c *Coercer) ValidateAll(observations []stability.Observation) []stability.RowIssue {
	var issues []stability.RowIssue
	for i, obs := range observations {
		if err := c.Validate(obs); err != nil {
			issues = append(issues, stability.RowIssue{Row: i + 1, Reason: err.Error()})
		}
	}
	return issues
}

type timepointColumn struct {
	header string
	months float64
}

type columns struct {
	time, condition, parameter, value string
	timepoints                        []timepointColumn
}

func resolveColumns(headers []string) columns {
	var cols columns
	for _, h := range headers {
		norm := normalizeHeader(h)
		switch {
		case cols.time == "" && contains(timeAliases, norm):
			cols.time = h
		case cols.condition == "" && contains(conditionAliases, norm):
			cols.condition = h
		case cols.parameter == "" && contains(parameterAliases, norm):
			cols.parameter = h
		case cols.value == "" && contains(valueAliases, norm):
			cols.value = h
		default:
			if months, ok := headerMonths(h); ok {
				cols.timepoints = append(cols.timepoints, timepointColumn{header: h, months: months})
			}
		}
	}
	sort.SliceStable(cols.timepoints, func(i, j int) bool {
		return cols.timepoints[i].months < cols.timepoints[j].months
	})
	return cols
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if i := strings.Index(h, "("); i > 0 {
		// "Time (months)" -> "time"
		h = strings.TrimSpace(h[:i])
	}
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func blank(row excel.RawRowData) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "finite":
		return "must be a finite number"
	}
	return "failed " + fe.Tag()
}
