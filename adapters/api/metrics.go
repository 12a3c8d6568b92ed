package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"shelflife/domain/stability"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelflife_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shelflife_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"route"})

	analysisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelflife_analysis_runs_total",
		Help: "Completed analysis runs by source",
	}, []string{"source"})

	groupVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelflife_group_verdicts_total",
		Help: "Qualification outcomes of analyzed groups",
	}, []string{"verdict"})

	groupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelflife_group_failures_total",
		Help: "Group-scoped stage failures by stage and kind",
	}, []string{"stage", "kind"})

	rowIssues = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelflife_ingestion_row_issues_total",
		Help: "Uploaded rows rejected at ingestion",
	})
)

// metricsMiddleware records request counts and latency per matched route
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func recordRun(run *stability.AnalysisRun) {
	analysisRuns.WithLabelValues(run.Source).Inc()
	for _, report := range run.Reports {
		verdict := "none"
		if report.Qualification != nil {
			verdict = string(report.Qualification.Verdict)
		}
		groupVerdicts.WithLabelValues(verdict).Inc()
		for _, failure := range report.Failures {
			groupFailures.WithLabelValues(failure.Stage, string(failure.Kind)).Inc()
		}
	}
	rowIssues.Add(float64(len(run.RowIssues)))
}
