package app

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelflife/adapters/excel"
	"shelflife/adapters/memory"
	"shelflife/domain/stability"
	"shelflife/internal/analysis"
	"shelflife/internal/errors"
	"shelflife/internal/testkit"
)

func newService(t *testing.T) *AnalysisService {
	t.Helper()
	svc := NewAnalysisService(analysis.NewEngine(stability.DefaultConditions()), memory.NewRunRepository())
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func assayObservations() []stability.Observation {
	return testkit.Line("25C_60RH", "assay", -0.3, 99.5, 0, 3, 6, 9, 12)
}

func TestAnalyzeObservations_SavesRun(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	run, err := svc.AnalyzeObservations(ctx, SourceAPI, assayObservations(), 95)
	require.NoError(t, err)

	assert.Equal(t, SourceAPI, run.Source)
	assert.Equal(t, 5, run.ObservationCount)
	assert.Equal(t, 95.0, run.SpecLimit)
	assert.False(t, run.Fingerprint.IsEmpty())
	require.Len(t, run.Reports, 1)
	require.NotNil(t, run.Reports[0].ShelfLife)
	assert.InDelta(t, 15.0, run.Reports[0].ShelfLife.Months, 1e-9)

	stored, err := svc.GetRun(ctx, run.ID.String())
	require.NoError(t, err)
	assert.Equal(t, run.Reports, stored.Reports)

	runs, err := svc.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestAnalyzeObservations_SameInputSameFingerprint(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	obs := assayObservations()

	first, err := svc.AnalyzeObservations(ctx, SourceAPI, obs, 95)
	require.NoError(t, err)
	reversed := []stability.Observation{obs[4], obs[3], obs[2], obs[1], obs[0]}
	second, err := svc.AnalyzeObservations(ctx, SourceAPI, reversed, 95)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Reports, second.Reports)
}

func TestAnalyzeObservations_RejectsInvalid(t *testing.T) {
	obs := append(assayObservations(), stability.Observation{Time: -1, Condition: "25C_60RH", Parameter: "assay", Value: 1})

	_, err := newService(t).AnalyzeObservations(context.Background(), SourceAPI, obs, 95)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "observation 6")
}

func TestAnalyzeObservations_InvalidSpecLimit(t *testing.T) {
	_, err := newService(t).AnalyzeObservations(context.Background(), SourceAPI, assayObservations(), math.Inf(1))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestAnalyzeUpload_CSVWithIssues(t *testing.T) {
	csv := strings.Join([]string{
		"time,condition,parameter,value",
		"0,40C_75RH,assay,100",
		"3,40C_75RH,assay,98",
		"6,40C_75RH,assay,bad",
		"6,40C_75RH,assay,96",
	}, "\n")

	run, err := newService(t).AnalyzeUpload(context.Background(), strings.NewReader(csv), "pulls.csv", 90)
	require.NoError(t, err)

	assert.Equal(t, SourceUpload, run.Source)
	assert.Equal(t, 3, run.ObservationCount)
	require.Len(t, run.RowIssues, 1)
	assert.Equal(t, 3, run.RowIssues[0].Row)

	require.Len(t, run.Reports, 1)
	require.NotNil(t, run.Reports[0].Qualification)
	assert.Equal(t, stability.VerdictQualifiedWithCaveat, run.Reports[0].Qualification.Verdict)
}

func TestAnalyzeUpload_Workbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, excel.WriteObservations(&buf, assayObservations()))

	run, err := newService(t).AnalyzeUpload(context.Background(), &buf, "pulls.xlsx", 95)
	require.NoError(t, err)
	assert.Equal(t, 5, run.ObservationCount)
}

func TestAnalyzeUpload_NothingUsable(t *testing.T) {
	csv := "time,condition,parameter,value\nx,25C_60RH,assay,1\n"
	_, err := newService(t).AnalyzeUpload(context.Background(), strings.NewReader(csv), "pulls.csv", 95)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = newService(t).AnalyzeUpload(context.Background(), strings.NewReader("a,b\n1,2\n"), "pulls.csv", 95)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestGetRun_Errors(t *testing.T) {
	svc := newService(t)

	_, err := svc.GetRun(context.Background(), "not-a-uuid")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.GetRun(context.Background(), "0190b4a0-0000-7000-8000-000000000000")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestNilRepository(t *testing.T) {
	svc := NewAnalysisService(analysis.NewEngine(stability.DefaultConditions()), nil)

	_, err := svc.AnalyzeObservations(context.Background(), SourceCLI, assayObservations(), 95)
	require.NoError(t, err)

	runs, err := svc.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
