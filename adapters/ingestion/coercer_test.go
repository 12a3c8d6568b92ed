package ingestion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelflife/adapters/excel"
	"shelflife/domain/core"
	"shelflife/domain/stability"
)

func TestFromRows_LongLayout(t *testing.T) {
	headers := []string{"Time (months)", "Storage Condition", "Test", "Result"}
	rows := []excel.RawRowData{
		{"Time (months)": "0", "Storage Condition": "25C_60RH", "Test": "assay", "Result": "100,0"},
		{"Time (months)": "3M", "Storage Condition": "25C_60RH", "Test": "assay", "Result": "99.1%"},
		{"Time (months)": "", "Storage Condition": "", "Test": "", "Result": ""},
		{"Time (months)": "6", "Storage Condition": "25C_60RH", "Test": "assay", "Result": "n/a"},
		{"Time (months)": "-1", "Storage Condition": "25C_60RH", "Test": "assay", "Result": "98"},
		{"Time (months)": "9", "Storage Condition": "", "Test": "assay", "Result": "97.6"},
	}

	result, err := NewCoercer().FromRows(headers, rows)
	require.NoError(t, err)

	assert.Equal(t, []stability.Observation{
		{Time: 0, Condition: "25C_60RH", Parameter: "assay", Value: 100},
		{Time: 3, Condition: "25C_60RH", Parameter: "assay", Value: 99.1},
	}, result.Observations)

	require.Len(t, result.Issues, 3)
	assert.Equal(t, 4, result.Issues[0].Row)
	assert.Contains(t, result.Issues[0].Reason, "not a number")
	assert.Equal(t, 5, result.Issues[1].Row)
	assert.Contains(t, result.Issues[1].Reason, "time must be >= 0")
	assert.Equal(t, 6, result.Issues[2].Row)
	assert.Contains(t, result.Issues[2].Reason, "condition is required")
}

func TestFromRows_WideLayout(t *testing.T) {
	headers := []string{"condition", "parameter", "6M", "0", "T3", "notes"}
	rows := []excel.RawRowData{
		{"condition": "40C_75RH", "parameter": "assay", "0": "100", "T3": "98.5", "6M": "97", "notes": "ok"},
		{"condition": "40C_75RH", "parameter": "impurity_total", "0": "0.1", "T3": "", "6M": "0.4"},
	}

	result, err := NewCoercer().FromRows(headers, rows)
	require.NoError(t, err)
	assert.Empty(t, result.Issues)

	assert.Equal(t, []stability.Observation{
		{Time: 0, Condition: "40C_75RH", Parameter: "assay", Value: 100},
		{Time: 3, Condition: "40C_75RH", Parameter: "assay", Value: 98.5},
		{Time: 6, Condition: "40C_75RH", Parameter: "assay", Value: 97},
		{Time: 0, Condition: "40C_75RH", Parameter: "impurity_total", Value: 0.1},
		{Time: 6, Condition: "40C_75RH", Parameter: "impurity_total", Value: 0.4},
	}, result.Observations)
}

func TestFromRows_WideLayoutInitialColumn(t *testing.T) {
	headers := []string{"Condition", "Parameter", "Initial", "1M", "3M", "6M"}
	rows := []excel.RawRowData{
		{"Condition": "25C_60RH", "Parameter": "assay", "Initial": "100", "1M": "99.8", "3M": "99.1", "6M": "98.5"},
	}

	result, err := NewCoercer().FromRows(headers, rows)
	require.NoError(t, err)
	assert.Empty(t, result.Issues)

	assert.Equal(t, []stability.Observation{
		{Time: 0, Condition: "25C_60RH", Parameter: "assay", Value: 100},
		{Time: 1, Condition: "25C_60RH", Parameter: "assay", Value: 99.8},
		{Time: 3, Condition: "25C_60RH", Parameter: "assay", Value: 99.1},
		{Time: 6, Condition: "25C_60RH", Parameter: "assay", Value: 98.5},
	}, result.Observations)
}

func TestFromRows_MissingColumns(t *testing.T) {
	_, err := NewCoercer().FromRows([]string{"time", "value"}, nil)
	assert.Error(t, err)

	_, err = NewCoercer().FromRows([]string{"condition", "parameter", "notes"}, nil)
	assert.Error(t, err)
}

func TestFromSheet(t *testing.T) {
	_, err := NewCoercer().FromSheet(nil)
	assert.Error(t, err)

	result, err := NewCoercer().FromSheet(&excel.SheetData{
		Headers: []string{"time", "condition", "parameter", "value"},
		Rows:    []excel.RawRowData{{"time": "12", "condition": "30C_65RH", "parameter": "assay", "value": "96.4"}},
	})
	require.NoError(t, err)
	require.Len(t, result.Observations, 1)
	assert.Equal(t, 12.0, result.Observations[0].Time)
}

func TestFromSeries(t *testing.T) {
	c := NewCoercer()

	obs, err := c.FromSeries("25C_60RH", "assay", []float64{0, 3, 6}, []float64{100, math.NaN(), 98})
	require.NoError(t, err)
	assert.Len(t, obs, 2)
	assert.Equal(t, 6.0, obs[1].Time)

	_, err = c.FromSeries("25C_60RH", "assay", []float64{0, 3}, []float64{100})
	assert.Error(t, err)

	_, err = c.FromSeries("25C_60RH", "assay", []float64{0}, []float64{math.Inf(1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidObservation)

	_, err = c.FromSeries("", "assay", []float64{0}, []float64{1})
	assert.True(t, core.IsInputError(err))
}

func TestValidateAll(t *testing.T) {
	issues := NewCoercer().ValidateAll([]stability.Observation{
		{Time: 0, Condition: "25C_60RH", Parameter: "assay", Value: 100},
		{Time: 1, Condition: "25C_60RH", Parameter: "", Value: 99},
		{Time: math.NaN(), Condition: "25C_60RH", Parameter: "assay", Value: 99},
	})
	require.Len(t, issues, 2)
	assert.Equal(t, 2, issues[0].Row)
	assert.Contains(t, issues[0].Reason, "parameter is required")
	assert.Contains(t, issues[1].Reason, "time must be a finite number")
}

func TestStandardTimepoints(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 3, 6, 9, 12, 18, 24, 36, 48}, StandardTimepoints)
}
