package api

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"abx/adapters/postgres"
	"abx/domain/core"
	"abx/internal/report"
	"abx/stats/cuped"
	"abx/stats/effect"
	"abx/stats/sequential"
	"abx/stats/srm"
)

func (s *Server) handleDiffInMeans(c *gin.Context) {
	var req DiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_JSON", Message: err.Error()})
		return
	}
	if req.Confidence == 0 {
		req.Confidence = effect.DefaultConfidence
	}

	res, err := effect.DiffInMeans(req.GroupA, req.GroupB, req.Confidence)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.persist(c, req.ExperimentID, postgres.KindDiffInMeans, req.Metric, res)
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleRatioOfMeans(c *gin.Context) {
	var req RatioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_JSON", Message: err.Error()})
		return
	}
	if req.Confidence == 0 {
		req.Confidence = effect.DefaultConfidence
	}

	res, err := effect.RatioOfMeans(req.NumA, req.DenA, req.NumB, req.DenB, req.Confidence)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.persist(c, req.ExperimentID, postgres.KindRatioOfMeans, req.Metric, res)
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleCuped(c *gin.Context) {
	var req CupedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_JSON", Message: err.Error()})
		return
	}

	ds, err := req.Dataset.Dataset()
	if err != nil {
		s.respondError(c, err)
		return
	}

	var adj *cuped.Adjustment
	if req.Covariate != nil {
		series := make([]float64, len(req.Covariate))
		for i, v := range req.Covariate {
			if v == nil {
				series[i] = math.NaN()
				continue
			}
			series[i] = *v
		}
		adj, err = cuped.AdjustWithSeries(ds, series)
	} else {
		adj, err = cuped.AdjustWithBaseline(ds)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := CupedResponse{
		Theta:          adj.Theta,
		AdjustedMetric: adj.Adjusted.Metric(),
	}
	for _, u := range adj.DroppedUnits {
		resp.DroppedUnits = append(resp.DroppedUnits, u.String())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSRM(c *gin.Context) {
	var req SRMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_JSON", Message: err.Error()})
		return
	}

	res, err := srm.Test(req.Observed, req.Expected)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.persist(c, req.ExperimentID, postgres.KindSRM, "allocation", res)
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleSequentialBernoulli(c *gin.Context) {
	var req SequentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_JSON", Message: err.Error()})
		return
	}

	res, err := sequential.BernoulliCI(req.Successes, req.Trials, req.Alpha)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.persist(c, req.ExperimentID, postgres.KindSequential, req.Metric, res)
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleSequentialDiff(c *gin.Context) {
	var req SequentialDiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_JSON", Message: err.Error()})
		return
	}

	res, err := sequential.DiffCI(req.SuccessesControl, req.TrialsControl, req.SuccessesTreatment, req.TrialsTreatment, req.Alpha)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.persist(c, req.ExperimentID, postgres.KindSequential, req.Metric, res)
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_JSON", Message: err.Error()})
		return
	}

	html := report.HTML(report.Readout{
		Experiment: req.ExperimentID,
		Effect:     req.Effect,
		SRM:        req.SRM,
		Theta:      req.Theta,
	})
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) handleListAnalyses(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusNotFound, errorResponse{Code: "NO_STORE", Message: "result store is not configured"})
		return
	}
	id, err := core.ParseExperimentID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_ID", Message: err.Error()})
		return
	}
	recs, err := s.repo.ListByExperiment(c.Request.Context(), id.String())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) handleGetAnalysis(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusNotFound, errorResponse{Code: "NO_STORE", Message: "result store is not configured"})
		return
	}
	id, err := core.ParseAnalysisID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_ID", Message: err.Error()})
		return
	}
	rec, err := s.repo.GetByID(c.Request.Context(), id.String())
	if err != nil {
		if core.HasCode(err, core.CodeNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Code: core.CodeNotFound, Message: err.Error()})
			return
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// persist stores an analysis outcome when both a store and an experiment id
// are present. Failures are logged, not surfaced: the estimate was already
// computed and belongs to the caller.
func (s *Server) persist(c *gin.Context, experimentID, kind, metric string, result interface{}) {
	if s.repo == nil || experimentID == "" {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.log.Error("failed to marshal %s result: %v", kind, err)
		return
	}
	rec := &postgres.AnalysisRecord{
		ExperimentID: experimentID,
		Kind:         kind,
		Metric:       metric,
		Result:       payload,
	}
	if err := s.repo.Save(c.Request.Context(), rec); err != nil {
		s.log.Warn("failed to persist %s result for experiment %s: %v", kind, experimentID, err)
	}
}
