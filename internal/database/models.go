package database

import (
	"time"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

// DefaultListLimit caps ListResults when the caller gives no limit.
const DefaultListLimit = 50

// MaxListLimit is the largest page ListResults returns.
const MaxListLimit = 500

// Assessment is one stored scoring: the result, its explanation and the
// feature set both were computed from.
type Assessment struct {
	Result      *scoring.ScoringResult `json:"result"`
	Explanation *scoring.Explanation   `json:"explanation,omitempty"`
	Features    analysis.FeatureSet    `json:"features,omitempty"`
}

// ID returns the scoring id, empty for an assessment without a result.
func (a *Assessment) ID() string {
	if a == nil || a.Result == nil {
		return ""
	}
	return a.Result.ScoringID
}

// Records returns the attribution records, nil when unexplained.
func (a *Assessment) Records() []scoring.AttributionRecord {
	if a == nil || a.Explanation == nil {
		return nil
	}
	return a.Explanation.Records
}

// ListFilter selects stored results by creation time. Zero bounds are open.
type ListFilter struct {
	From  time.Time `json:"from" form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To    time.Time `json:"to" form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit int       `json:"limit" form:"limit"`
}

// bounds resolves the filter to a half-open [from, to) range in unix
// nanoseconds plus an effective limit.
func (f ListFilter) bounds() (from, to int64, limit int) {
	from = 0
	if !f.From.IsZero() {
		from = f.From.UTC().UnixNano()
	}
	to = int64(^uint64(0) >> 1)
	if !f.To.IsZero() {
		to = f.To.UTC().UnixNano()
	}

	limit = f.Limit
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return from, to, limit
}
