package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/cogscreen/internal/database"
	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
	"github.com/ZanzyTHEbar/cogscreen/internal/pipeline"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
	"github.com/ZanzyTHEbar/cogscreen/internal/security"
	"github.com/ZanzyTHEbar/cogscreen/internal/types"
)

// bind decodes a JSON body, reporting malformed input as a validation error.
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperrors.NewValidationError("invalid request body: "+err.Error(), "body"))
		return false
	}
	return true
}

// cleanInput rejects unusable text and strips control characters.
func (s *server) cleanInput(req types.FeaturesRequest) (pipeline.AnalyzeInput, error) {
	if err := s.security.ValidateText(req.Text); err != nil {
		return pipeline.AnalyzeInput{}, err
	}
	in := req.Input()
	in.Text = security.SanitizeText(in.Text)
	return in, nil
}

// handleHealth godoc
//
//	@Summary		Service health
//	@Description	Runs dependency checks and reports the degradation level, circuit breaker and cache state.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	types.HealthResponse
//	@Failure		503	{object}	types.HealthResponse
//	@Router			/health [get]
func (s *server) handleHealth(c *gin.Context) {
	health := s.app.Service.Health(c.Request.Context())

	status := http.StatusOK
	if health.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, types.HealthResponse{
		Health:    health,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   version,
	})
}

// handleMetrics godoc
//
//	@Summary	Runtime and pipeline metrics
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Router		/metrics [get]
func (s *server) handleMetrics(c *gin.Context) {
	stats := s.app.Metrics.GetStats()
	stats["compression"] = s.compression.GetStats()
	stats["rate_limiter"] = s.limiter.GetStats()
	if s.app.DB != nil {
		stats["database_pool"] = s.app.DB.GetPoolStats()
	}
	if breaker := s.app.Engine.BreakerStats(); breaker != nil {
		stats["circuit_breaker"] = breaker
	}
	c.JSON(http.StatusOK, stats)
}

// handlePrivacy godoc
//
//	@Summary		Data retention policy
//	@Description	Describes what is stored for each assessment and how long it is kept.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/api/v1/privacy [get]
func (s *server) handlePrivacy(c *gin.Context) {
	c.JSON(http.StatusOK, s.retention.RetentionInfo())
}

// handleFeatures godoc
//
//	@Summary		Extract features
//	@Description	Extracts the feature vector from a transcript without scoring it.
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.FeaturesRequest	true	"Transcript"
//	@Success		200		{object}	analysis.FeatureVector
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		429		{object}	types.ErrorResponse
//	@Router			/api/v1/features [post]
func (s *server) handleFeatures(c *gin.Context) {
	var req types.FeaturesRequest
	if !bind(c, &req) {
		return
	}
	in, err := s.cleanInput(req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	fv, err := s.app.Service.ExtractFeatures(c.Request.Context(), in.Text, in.Metadata, in.Options)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, fv)
}

// handleScore godoc
//
//	@Summary		Score features
//	@Description	Scores a feature vector or a bare feature set. The primary model is tried first and the weighted fallback is used when it is unavailable.
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.ScoreRequest	true	"Features"
//	@Success		200		{object}	scoring.ScoringResult
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		504		{object}	types.ErrorResponse
//	@Router			/api/v1/score [post]
func (s *server) handleScore(c *gin.Context) {
	var req types.ScoreRequest
	if !bind(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	var err error
	var result *scoring.ScoringResult
	if req.Features != nil {
		result, err = s.app.Service.ScoreFeatures(ctx, req.Features, req.Options)
	} else {
		result, err = s.app.Service.ScoreFeatureSet(ctx, req.FeatureSet, req.Options)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleAttribute godoc
//
//	@Summary		Explain a score
//	@Description	Ranks per-feature contributions to a scoring result.
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.AttributeRequest	true	"Features and result"
//	@Success		200		{object}	scoring.Explanation
//	@Failure		400		{object}	types.ErrorResponse
//	@Router			/api/v1/attribute [post]
func (s *server) handleAttribute(c *gin.Context) {
	var req types.AttributeRequest
	if !bind(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	var err error
	var explanation *scoring.Explanation
	if req.Features != nil {
		explanation, err = s.app.Service.Attribute(ctx, req.Features, req.Result)
	} else {
		explanation, err = s.app.Service.AttributeFeatureSet(ctx, req.FeatureSet, req.Result)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, explanation)
}

// handleAnalyze godoc
//
//	@Summary		Analyze a transcript
//	@Description	Extracts features, scores them, explains the score and stores the result.
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.AnalyzeRequest	true	"Transcript"
//	@Success		200		{object}	pipeline.AnalyzeOutput
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		429		{object}	types.ErrorResponse
//	@Failure		504		{object}	types.ErrorResponse
//	@Router			/api/v1/analyze [post]
func (s *server) handleAnalyze(c *gin.Context) {
	var req types.AnalyzeRequest
	if !bind(c, &req) {
		return
	}
	in, err := s.cleanInput(req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	out, err := s.app.Service.Analyze(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// handleBatch godoc
//
//	@Summary		Analyze several transcripts
//	@Description	Runs the full pipeline over up to 50 transcripts concurrently. Items keep input order and fail independently, except for unusable text which rejects the whole batch.
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.BatchRequest	true	"Transcripts"
//	@Success		200		{object}	types.BatchResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		429		{object}	types.ErrorResponse
//	@Router			/api/v1/analyze/batch [post]
func (s *server) handleBatch(c *gin.Context) {
	var req types.BatchRequest
	if !bind(c, &req) {
		return
	}

	inputs := make([]pipeline.AnalyzeInput, len(req.Inputs))
	for i, item := range req.Inputs {
		in, err := s.cleanInput(item)
		if err != nil {
			_ = c.Error(apperrors.NewValidationError(
				fmt.Sprintf("inputs[%d]: %s", i, apperrors.ToAppError(err).ErrBuilder.Msg),
				fmt.Sprintf("inputs[%d].text", i)))
			return
		}
		inputs[i] = in
	}

	items, err := s.app.Service.AnalyzeBatch(c.Request.Context(), inputs)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.NewBatchResponse(items))
}

// handleListResults godoc
//
//	@Summary		List stored results
//	@Description	Lists stored assessments created in [from, to), newest first.
//	@Tags			results
//	@Produce		json
//	@Param			from	query		string	false	"Inclusive start (RFC3339)"
//	@Param			to		query		string	false	"Exclusive end (RFC3339)"
//	@Param			limit	query		int		false	"Maximum results (default 50, max 500)"
//	@Success		200		{object}	types.ResultsResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Router			/api/v1/results [get]
func (s *server) handleListResults(c *gin.Context) {
	var filter database.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		_ = c.Error(apperrors.NewValidationError("invalid query: "+err.Error(), "from", "to", "limit"))
		return
	}

	results, err := s.app.Service.ListResults(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if results == nil {
		results = []*database.Assessment{}
	}
	c.JSON(http.StatusOK, types.ResultsResponse{Results: results, Count: len(results)})
}

// handleGetResult godoc
//
//	@Summary	Get a stored result
//	@Tags		results
//	@Produce	json
//	@Param		id	path		string	true	"Scoring ID"
//	@Success	200	{object}	database.Assessment
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/v1/results/{id} [get]
func (s *server) handleGetResult(c *gin.Context) {
	assessment, err := s.app.Service.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// handleDeleteResult godoc
//
//	@Summary	Delete a stored result
//	@Tags		results
//	@Param		id	path	string	true	"Scoring ID"
//	@Success	204
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/v1/results/{id} [delete]
func (s *server) handleDeleteResult(c *gin.Context) {
	if err := s.app.Service.DeleteResult(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleCompare godoc
//
//	@Summary		Compare stored results
//	@Description	Compares 2 to 10 stored assessments: trend, range, per-feature consistency and insights.
//	@Tags			results
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.CompareRequest	true	"Scoring IDs"
//	@Success		200		{object}	scoring.ComparisonReport
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/api/v1/compare [post]
func (s *server) handleCompare(c *gin.Context) {
	var req types.CompareRequest
	if !bind(c, &req) {
		return
	}

	report, err := s.app.Service.Compare(c.Request.Context(), req.ScoringIDs)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, report)
}
