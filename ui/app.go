// Package ui serves the archive dashboard: experiments, scalar tables and
// charts of archived model results.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"simflow/adapters/figure"
	"simflow/internal"
	"simflow/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App represents the dashboard application
type App struct {
	router    *chi.Mux
	archive   ports.ArchiveRepository
	charts    ports.FigureExporter
	templates *template.Template
	logger    *internal.Logger
	config    Config
}

// Config holds dashboard configuration
type Config struct {
	Port string
}

// NewApp creates the dashboard over an archive
func NewApp(archive ports.ArchiveRepository, config Config, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	funcMap := template.FuncMap{
		"num": func(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		archive:   archive,
		charts:    figure.HTMLExporter{Width: "100%"},
		templates: templates,
		logger:    logger.With("dashboard"),
		config:    config,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/experiments/{name}", a.handleExperiment)

	// Charts are standalone go-echarts pages embedded by the experiment page
	a.router.Get("/experiments/{name}/charts/scatter", a.handleScatterChart)
	a.router.Get("/experiments/{name}/charts/curves", a.handleCurveChart)
}

// Handler returns the dashboard router
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves the dashboard until the listener fails
func (a *App) Start() error {
	addr := ":" + a.config.Port
	a.logger.Info("dashboard listening on http://localhost%s", addr)
	return http.ListenAndServe(addr, a.router)
}
