package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shelflife/app"
	"shelflife/domain/stability"
	"shelflife/internal"
)

//go:embed templates/*.html templates/fragments/*.html static/*
var embeddedFiles embed.FS

// App is the read-only report viewer
type App struct {
	router    *chi.Mux
	templates *template.Template
	service   *app.AnalysisService
	config    Config
	logger    *internal.Logger

	mu    sync.RWMutex
	store stability.Store
	run   *stability.AnalysisRun
}

// Config holds viewer settings
type Config struct {
	Port      string
	SpecLimit float64
	Source    string // Label shown in the header, e.g. the workbook path
}

// NewApp analyzes the given observations once and serves the resulting run
func NewApp(config Config, service *app.AnalysisService, observations []stability.Observation) (*App, error) {
	funcMap := template.FuncMap{
		"fmtf": func(f float64, prec int) string { return fmt.Sprintf("%.*f", prec, f) },
		"verdictClass": func(v stability.Verdict) string {
			switch v {
			case stability.VerdictQualified:
				return "ok"
			case stability.VerdictQualifiedWithCaveat:
				return "warn"
			}
			return "bad"
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		templates: templates,
		service:   service,
		config:    config,
		logger:    internal.DefaultLogger.WithComponent("Viewer"),
	}
	if err := a.Load(context.Background(), observations); err != nil {
		return nil, err
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// Load replaces the served run with a fresh analysis of observations
func (a *App) Load(ctx context.Context, observations []stability.Observation) error {
	store := stability.NewStore(observations...)
	run, err := a.service.AnalyzeObservations(ctx, app.SourceWorkbook, observations, a.config.SpecLimit)
	if err != nil {
		return fmt.Errorf("failed to analyze viewer data: %w", err)
	}

	a.mu.Lock()
	a.store, a.run = store, run
	a.mu.Unlock()
	a.logger.Info("loaded %d observations into %d reports", store.Len(), len(run.Reports))
	return nil
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
	a.router.Use(middleware.Timeout(30 * time.Second))
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/reports/{condition}/{parameter}", a.handleReport)
	a.router.Handle("/static/*", http.FileServer(http.FS(embeddedFiles)))
}

// Handler returns the router
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start() error {
	port := ":" + a.config.Port
	a.logger.Info("starting report viewer on %s", port)
	return http.ListenAndServe(port, a.router)
}

func (a *App) snapshot() (stability.Store, *stability.AnalysisRun) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.store, a.run
}

func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
