package excel

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"shelflife/domain/stability"
)

const (
	ReportsSheet      = "Reports"
	RunSheet          = "Run"
	RowIssuesSheet    = "Row Issues"
	ObservationsSheet = "Sheet1"
)

var reportHeaders = []interface{}{
	"Condition", "Parameter", "Timepoints", "Points", "Slope", "Intercept", "R²",
	"Shelf Life (months)", "Expired", "Verdict", "Category", "Rationale", "Failures",
}

// ExportRun writes an analysis run as an xlsx workbook: one row per group on
// the Reports sheet, run metadata on Run and rejected rows on Row Issues.
func ExportRun(w io.Writer, run stability.AnalysisRun) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	rows := [][]interface{}{reportHeaders}
	for _, report := range run.Reports {
		rows = append(rows, reportRow(report))
	}
	if err := writeSheet(f, ReportsSheet, rows, headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(ReportsSheet, "A", "B", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(ReportsSheet, "L", "M", 60); err != nil {
		return err
	}

	if _, err := f.NewSheet(RunSheet); err != nil {
		return fmt.Errorf("failed to add %s sheet: %w", RunSheet, err)
	}
	meta := [][]interface{}{
		{"Field", "Value"},
		{"Run ID", run.ID.String()},
		{"Source", run.Source},
		{"Fingerprint", run.Fingerprint.String()},
		{"Spec Limit", run.SpecLimit},
		{"Observations", run.ObservationCount},
		{"Created At", run.CreatedAt.UTC().Format(time.RFC3339)},
	}
	if err := writeSheet(f, RunSheet, meta, headerStyle); err != nil {
		return err
	}

	if len(run.RowIssues) > 0 {
		if _, err := f.NewSheet(RowIssuesSheet); err != nil {
			return fmt.Errorf("failed to add %s sheet: %w", RowIssuesSheet, err)
		}
		issues := [][]interface{}{{"Row", "Reason"}}
		for _, issue := range run.RowIssues {
			issues = append(issues, []interface{}{issue.Row, issue.Reason})
		}
		if err := writeSheet(f, RowIssuesSheet, issues, headerStyle); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

// WriteObservations writes observations in the long layout DataReader reads back
func WriteObservations(w io.Writer, observations []stability.Observation) error {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{{"time", "condition", "parameter", "value"}}
	for _, obs := range observations {
		rows = append(rows, []interface{}{obs.Time, obs.Condition, obs.Parameter, obs.Value})
	}
	if err := writeSheet(f, ObservationsSheet, rows, 0); err != nil {
		return err
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if headerStyle == 0 || len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

func reportRow(report stability.AnalysisReport) []interface{} {
	row := []interface{}{
		report.Condition,
		report.Parameter,
		report.Summary.Timepoints,
		report.Summary.Points,
		"", "", "", "", "", "", "", "", "",
	}
	if fit := report.Regression; fit != nil {
		row[4], row[5], row[6] = fit.Slope, fit.Intercept, fit.RSquared
	}
	if est := report.ShelfLife; est != nil {
		row[7], row[8] = est.Months, est.Expired
	}
	if q := report.Qualification; q != nil {
		row[9], row[10], row[11] = string(q.Verdict), q.Category.Label(), q.Rationale
	}
	if report.Failed() {
		msgs := make([]string, 0, len(report.Failures))
		for _, failure := range report.Failures {
			msgs = append(msgs, fmt.Sprintf("%s: %s", failure.Stage, failure.Message))
		}
		row[12] = strings.Join(msgs, "; ")
	}
	return row
}
