package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelflife/app"
	"shelflife/domain/stability"
	"shelflife/internal/analysis"
	"shelflife/internal/testkit"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	observations := append(
		testkit.Line("25C_60RH", "assay", -0.3, 99.5, 0, 3, 6, 9, 12),
		testkit.Line("40C_75RH", "assay", -1, 100, 0, 3)...,
	)
	service := app.NewAnalysisService(analysis.NewEngine(stability.DefaultConditions()), nil)
	a, err := NewApp(Config{SpecLimit: 95, Source: "fixture.xlsx"}, service, observations)
	require.NoError(t, err)
	return a
}

func get(t *testing.T, a *App, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndex(t *testing.T) {
	w := get(t, newTestApp(t), "/")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "fixture.xlsx")
	assert.Contains(t, body, `href="/reports/25C_60RH/assay"`)
	assert.Contains(t, body, "15.0")
	assert.Contains(t, body, "not_qualified")
	assert.Contains(t, body, "Stability analysis summary")
}

func TestReport(t *testing.T) {
	w := get(t, newTestApp(t), "/reports/25C_60RH/assay")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "25C_60RH / assay")
	assert.Contains(t, body, "timepoints")
	assert.Contains(t, body, "<th>Residual</th>")
	assert.Contains(t, body, "<td>99.5</td>")
}

func TestReport_NotFound(t *testing.T) {
	w := get(t, newTestApp(t), "/reports/99C/assay")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatic(t *testing.T) {
	w := get(t, newTestApp(t), "/static/style.css")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewApp_RejectsBadData(t *testing.T) {
	service := app.NewAnalysisService(analysis.NewEngine(stability.DefaultConditions()), nil)
	_, err := NewApp(Config{SpecLimit: 95}, service, []stability.Observation{{Time: -1, Condition: "c", Parameter: "p"}})
	assert.Error(t, err)
}
