// Package types holds the REST request and response bodies.
package types

import (
	"time"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	"github.com/ZanzyTHEbar/cogscreen/internal/database"
	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
	"github.com/ZanzyTHEbar/cogscreen/internal/pipeline"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

// FeaturesRequest is the body of POST /features and POST /analyze.
type FeaturesRequest struct {
	Text     string                   `json:"text" example:"I went to the store and bought some milk."`
	Metadata *analysis.TimingMetadata `json:"metadata,omitempty"`
	Options  analysis.Options         `json:"options"`
}

// Input converts the request into a pipeline input.
func (r FeaturesRequest) Input() pipeline.AnalyzeInput {
	return pipeline.AnalyzeInput{Text: r.Text, Metadata: r.Metadata, Options: r.Options}
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest = FeaturesRequest

// ScoreRequest is the body of POST /score. Exactly one of Features and
// FeatureSet is used; Features wins when both are sent.
type ScoreRequest struct {
	Features   *analysis.FeatureVector `json:"features,omitempty"`
	FeatureSet analysis.FeatureSet     `json:"featureSet,omitempty"`
	Options    analysis.Options        `json:"options"`
}

// Validate reports a missing feature payload.
func (r ScoreRequest) Validate() error {
	if r.Features == nil && len(r.FeatureSet) == 0 {
		return apperrors.NewValidationError("features or featureSet is required", "features")
	}
	return nil
}

// AttributeRequest is the body of POST /attribute.
type AttributeRequest struct {
	Features   *analysis.FeatureVector `json:"features,omitempty"`
	FeatureSet analysis.FeatureSet     `json:"featureSet,omitempty"`
	Result     *scoring.ScoringResult  `json:"result"`
}

// Validate reports a missing feature payload or result.
func (r AttributeRequest) Validate() error {
	var fields []string
	if r.Features == nil && len(r.FeatureSet) == 0 {
		fields = append(fields, "features")
	}
	if r.Result == nil {
		fields = append(fields, "result")
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("features and result are required", fields...)
	}
	return nil
}

// BatchRequest is the body of POST /analyze/batch.
type BatchRequest struct {
	Inputs []FeaturesRequest `json:"inputs"`
}

// BatchItemResponse is one batch entry. Exactly one of Output and Error is
// set.
type BatchItemResponse struct {
	Index  int                     `json:"index"`
	Output *pipeline.AnalyzeOutput `json:"output,omitempty"`
	Error  map[string]interface{}  `json:"error,omitempty"`
}

// BatchResponse is returned by POST /analyze/batch in input order.
type BatchResponse struct {
	Items     []BatchItemResponse `json:"items"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// NewBatchResponse renders pipeline batch items.
func NewBatchResponse(items []pipeline.BatchItem) BatchResponse {
	resp := BatchResponse{Items: make([]BatchItemResponse, len(items))}
	for i, item := range items {
		out := BatchItemResponse{Index: item.Index, Output: item.Output}
		if item.Error != nil {
			out.Error = apperrors.ToAppError(item.Error).Response()
			resp.Failed++
		} else {
			resp.Succeeded++
		}
		resp.Items[i] = out
	}
	return resp
}

// CompareRequest is the body of POST /compare.
type CompareRequest struct {
	ScoringIDs []string `json:"scoringIds"`
}

// ResultsResponse is returned by GET /results.
type ResultsResponse struct {
	Results []*database.Assessment `json:"results"`
	Count   int                    `json:"count"`
}

// ErrorResponse documents the error envelope for swagger.
type ErrorResponse struct {
	Error     string    `json:"error" example:"Validation failed"`
	Category  string    `json:"category" example:"validation"`
	Fields    []string  `json:"fields,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	pipeline.Health
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}
