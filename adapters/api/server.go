package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shelflife/app"
	"shelflife/domain/stability"
	"shelflife/internal"
)

// Config holds API server settings
type Config struct {
	Port           string
	GinMode        string
	MaxUploadBytes int64
	MetricsEnabled bool
	MetricsPath    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server exposes the analysis service over HTTP
type Server struct {
	router     *gin.Engine
	service    *app.AnalysisService
	conditions stability.ConditionTable
	config     Config
	logger     *internal.Logger
	httpServer *http.Server
}

// NewServer creates a new API server instance
func NewServer(service *app.AnalysisService, conditions stability.ConditionTable, config Config) *Server {
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metricsMiddleware())
	if config.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = config.MaxUploadBytes
	}

	s := &Server{
		router:     router,
		service:    service,
		conditions: conditions,
		config:     config,
		logger:     internal.DefaultLogger.WithComponent("API"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	if s.config.MetricsEnabled {
		s.router.GET(s.config.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyses", s.handleAnalyze)
		v1.POST("/analyses/upload", s.handleUpload)
		v1.GET("/analyses", s.handleListRuns)
		v1.GET("/analyses/:id", s.handleGetRun)
		v1.GET("/analyses/:id/export", s.handleExportRun)
		v1.GET("/analyses/:id/summary", s.handleRunSummary)
		v1.POST("/qualify", s.handleQualify)
		v1.POST("/extrapolation", s.handleExtrapolation)
		v1.GET("/conditions", s.handleConditions)
	}
}

// Handler returns the router for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving on the configured port and blocks until shutdown
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.logger.Info("listening on :%s", s.config.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
