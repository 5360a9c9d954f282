// Package api exposes the pipeline over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gonum.org/v1/gonum/mat"

	"lassosig/app"
	"lassosig/domain/core"
	"lassosig/domain/model"
	"lassosig/internal"
	apperrors "lassosig/internal/errors"
	"lassosig/ports"
)

// Server wires the pipeline service and result store behind a gin router
type Server struct {
	router   *gin.Engine
	pipeline *app.PipelineService
	store    ports.ResultStore
	logger   *internal.Logger
}

// RunRequest is the POST /api/runs payload: the design matrix row-major,
// the binary response, and optional column names.
type RunRequest struct {
	X     [][]float64 `json:"x" binding:"required"`
	Y     []float64   `json:"y" binding:"required"`
	Terms []string    `json:"terms,omitempty"`
}

// NewServer creates the HTTP server
func NewServer(pipeline *app.PipelineService, store ports.ResultStore, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:   gin.New(),
		pipeline: pipeline,
		store:    store,
		logger:   logger,
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/api/runs", s.handleCreateRun)
	s.router.GET("/api/runs", s.handleListRuns)
	s.router.GET("/api/runs/:id", s.handleGetRun)
}

// Start runs the HTTP server on the given address
func (s *Server) Start(addr string) error {
	s.logger.Info("HTTP server listening on %s", addr)
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ds, err := datasetFromRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.pipeline.RunAndStore(c.Request.Context(), ds, s.store)
	if err != nil {
		s.logger.Error("run failed: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "code": apperrors.GetCode(err)})
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 20
	}

	manifests, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": manifests, "count": len(manifests)})
}

func (s *Server) handleGetRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrRunNotFound) {
			nf := apperrors.NotFound("run")
			c.JSON(http.StatusNotFound, gin.H{"error": nf.Message, "code": nf.Code})
			return
		}
		s.logger.Error("failed to load run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve run"})
		return
	}

	c.JSON(http.StatusOK, run)
}

func datasetFromRequest(req RunRequest) (*model.Dataset, error) {
	n := len(req.X)
	if n == 0 {
		return nil, core.ErrEmptyDesign
	}
	p := len(req.X[0])
	if p == 0 {
		return nil, core.ErrEmptyDesign
	}
	x := mat.NewDense(n, p, nil)
	for i, row := range req.X {
		if len(row) != p {
			return nil, core.NewValidationError("x", "ragged design matrix")
		}
		x.SetRow(i, row)
	}

	var terms model.VariableSet
	if len(req.Terms) > 0 {
		keys := make([]core.TermKey, len(req.Terms))
		for i, t := range req.Terms {
			keys[i] = core.TermKey(t)
		}
		var err error
		if terms, err = model.NewVariableSet(keys); err != nil {
			return nil, err
		}
	}

	return model.NewDataset(x, req.Y, terms)
}

// statusFor maps pipeline failures to HTTP status codes
func statusFor(err error) int {
	switch {
	case core.IsInputError(err), core.IsDegenerateResponse(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrRetriesExhausted):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
