// Package api exposes the analysis engine over HTTP. The handlers are thin
// adapters: they decode payloads, call the estimators with explicit
// parameters, optionally persist the outcome, and encode the result. No
// statistical decision lives here.
package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"abx/adapters/postgres"
	"abx/domain/core"
	"abx/internal/logging"
)

var nan = math.NaN()

// Server is the HTTP analysis service.
type Server struct {
	router *gin.Engine
	repo   *postgres.AnalysisRepository // nil disables persistence
	log    *logging.Logger
}

// NewServer wires routes. Pass a nil repository to run without a result
// store; every analysis endpoint still works.
func NewServer(mode string, repo *postgres.AnalysisRepository) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	s := &Server{
		router: gin.New(),
		repo:   repo,
		log:    logging.Default,
	}
	s.router.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.router.Group("/v1")
	{
		v1.POST("/effect/diff", s.handleDiffInMeans)
		v1.POST("/effect/ratio", s.handleRatioOfMeans)
		v1.POST("/cuped", s.handleCuped)
		v1.POST("/srm", s.handleSRM)
		v1.POST("/sequential/bernoulli", s.handleSequentialBernoulli)
		v1.POST("/sequential/diff", s.handleSequentialDiff)
		v1.POST("/report", s.handleReport)
		v1.GET("/experiments/:id/analyses", s.handleListAnalyses)
		v1.GET("/analyses/:id", s.handleGetAnalysis)
	}
}

// Run starts the server on the given address.
func (s *Server) Run(addr string) error {
	s.log.Info("analysis service listening on %s", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// respondError maps the engine's error codes onto HTTP statuses. Input
// shape problems are the caller's fault; degenerate-data failures are
// unprocessable rather than malformed.
func (s *Server) respondError(c *gin.Context, err error) {
	var appErr *core.AppError
	if !errors.As(err, &appErr) {
		s.log.Error("unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case core.CodeSchemaViolation, core.CodeShapeMismatch, core.CodeInvalidCount, core.CodeCoverageGap:
		status = http.StatusBadRequest
	case core.CodeInsufficientData, core.CodeDivisionUndefined:
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, errorResponse{Code: appErr.Code, Message: appErr.Error()})
}
