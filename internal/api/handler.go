// Package api exposes the result archive and the verification case
// aggregation over a JSON HTTP API.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"simflow/app"
	"simflow/domain/core"
	"simflow/domain/verification"
	"simflow/internal"
	apperrors "simflow/internal/errors"
	"simflow/ports"
)

// Handler serves the archive and verification endpoints
type Handler struct {
	archive ports.ArchiveRepository
	logger  *internal.Logger
}

// NewHandler creates a handler over the archive
func NewHandler(archive ports.ArchiveRepository, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{archive: archive, logger: logger.With("api")}
}

// NewRouter builds a gin engine with the API routes registered
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())
	h.Register(router)
	return router
}

// Register mounts the API routes under /api
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/models", h.ListModels)
	g.GET("/experiments", h.ListExperiments)
	g.GET("/experiments/:name/results", h.ListResults)
	g.GET("/results/:id", h.GetResult)
	g.POST("/verification/cases", h.CreateVerificationCase)
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": apperrors.GetCode(err)})
}

// Health reports that the server is up
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListModels returns the models present in the archive
func (h *Handler) ListModels(c *gin.Context) {
	models, err := h.archive.ListModels(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

// ListExperiments returns one summary per experiment, model and load case
func (h *Handler) ListExperiments(c *gin.Context) {
	experiments, err := h.archive.ListExperiments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiments": experiments})
}

// ListResults returns the results of one experiment. Query parameters model,
// load_case, limit and offset narrow the selection.
func (h *Handler) ListResults(c *gin.Context) {
	filters := ports.ResultFilters{
		Model:    c.Query("model"),
		LoadCase: c.Query("load_case"),
	}
	var err error
	if filters.Limit, err = intQuery(c, "limit"); err != nil {
		h.fail(c, err)
		return
	}
	if filters.Offset, err = intQuery(c, "offset"); err != nil {
		h.fail(c, err)
		return
	}

	experiment := core.Experiment(c.Param("name"))
	results, err := h.archive.ListByExperiment(c.Request.Context(), experiment, filters)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiment": experiment, "count": len(results), "results": results})
}

// GetResult returns one archived result
func (h *Handler) GetResult(c *gin.Context) {
	result, err := h.archive.Get(c.Request.Context(), core.ResultID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateVerificationCase aggregates the posted verification results and
// returns the case result with its trajectory count
func (h *Handler) CreateVerificationCase(c *gin.Context) {
	var results []verification.VerificationResult
	if err := c.ShouldBindJSON(&results); err != nil {
		h.fail(c, apperrors.InvalidInput("invalid verification results: "+err.Error()))
		return
	}

	vc := app.NewSolutionVerificationCase("", nil, h.logger)
	caseResult, err := vc.Execute(results)
	if err != nil {
		h.fail(c, err)
		return
	}
	trajectories, err := caseResult.TrajectoryCount()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"trajectories": trajectories,
		"result":       caseResult,
	})
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.InvalidInput(key + " must be a non-negative integer")
	}
	return n, nil
}
