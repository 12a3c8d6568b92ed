package ui

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shelflife/domain/stability"
	"shelflife/internal/analysis"
	"shelflife/internal/summary"
)

type indexPage struct {
	Source  string
	Run     *stability.AnalysisRun
	Summary template.HTML
}

type pointRow struct {
	Time     float64
	Value    float64
	Fitted   float64
	Residual float64
}

type reportPage struct {
	Source  string
	Report  stability.AnalysisReport
	Points  []pointRow
	Summary template.HTML
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	_, run := a.snapshot()
	a.renderTemplate(w, "index.html", indexPage{
		Source:  a.config.Source,
		Run:     run,
		Summary: template.HTML(summary.HTML(summary.Batch(run.Reports))),
	})
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	key := stability.GroupKey{
		Condition: chi.URLParam(r, "condition"),
		Parameter: chi.URLParam(r, "parameter"),
	}
	store, run := a.snapshot()

	report, ok := run.Report(key)
	if !ok {
		http.NotFound(w, r)
		return
	}

	var points []pointRow
	for _, group := range analysis.Partition(store) {
		if group.Key != key {
			continue
		}
		for _, obs := range group.Observations {
			row := pointRow{Time: obs.Time, Value: obs.Value}
			if report.Regression != nil {
				row.Fitted = report.Regression.Predict(obs.Time)
				row.Residual = obs.Value - row.Fitted
			}
			points = append(points, row)
		}
	}

	a.renderTemplate(w, "report.html", reportPage{
		Source:  a.config.Source,
		Report:  report,
		Points:  points,
		Summary: template.HTML(summary.HTML(summary.Markdown(report))),
	})
}
