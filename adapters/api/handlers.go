package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shelflife/adapters/excel"
	"shelflife/app"
	"shelflife/internal/errors"
	"shelflife/internal/ich"
	"shelflife/internal/summary"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}

	run, err := s.service.AnalyzeObservations(c.Request.Context(), app.SourceAPI, req.Observations, *req.SpecLimit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	recordRun(run)
	c.JSON(http.StatusCreated, run)
}

func (s *Server) handleUpload(c *gin.Context) {
	specLimit, err := strconv.ParseFloat(c.PostForm("spec_limit"), 64)
	if err != nil {
		s.respondError(c, errors.InvalidInput("spec_limit form field must be a number"))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, errors.InvalidInput("file form field is required"))
		return
	}
	if s.config.MaxUploadBytes > 0 && header.Size > s.config.MaxUploadBytes {
		s.respondError(c, errors.InvalidInput(fmt.Sprintf("file exceeds %d bytes", s.config.MaxUploadBytes)))
		return
	}
	file, err := header.Open()
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to open upload"))
		return
	}
	defer file.Close()

	run, err := s.service.AnalyzeUpload(c.Request.Context(), file, header.Filename, specLimit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	recordRun(run)
	c.JSON(http.StatusCreated, run)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		s.respondError(c, errors.InvalidInput("limit must be a non-negative integer"))
		return
	}

	runs, err := s.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, summarize(run))
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleExportRun(c *gin.Context) {
	run, err := s.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="shelflife-%s.xlsx"`, run.ID.String()))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := excel.ExportRun(c.Writer, *run); err != nil {
		s.logger.Error("export of run %s failed: %v", run.ID, err)
	}
}

func (s *Server) handleRunSummary(c *gin.Context) {
	run, err := s.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	md := summary.Batch(run.Reports)
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(summary.HTML(md)))
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

func (s *Server) handleQualify(c *gin.Context) {
	var req QualifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}

	criteria := s.service.Engine().Criteria()
	verdict, err := ich.NewQualifier(s.conditions, criteria).Qualify(req.Timepoints, *req.RSquared, req.Condition)
	if err != nil {
		s.respondError(c, errors.Wrap(errors.InvalidInput(err.Error()), "qualification failed"))
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (s *Server) handleExtrapolation(c *gin.Context) {
	var in ich.ExtrapolationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	if in.BaseMonths < 0 || math.IsNaN(in.BaseMonths) {
		s.respondError(c, errors.InvalidInput("base_months must be >= 0"))
		return
	}
	c.JSON(http.StatusOK, ich.ProposeExtrapolation(in))
}

func (s *Server) handleConditions(c *gin.Context) {
	c.JSON(http.StatusOK, ConditionsResponse{
		Conditions: s.conditions,
		Criteria:   s.service.Engine().Criteria(),
	})
}
