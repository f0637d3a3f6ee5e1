package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveAssessment stores a result and its explanation in one transaction.
// Stored results are immutable: saving an existing id fails.
func (r *Repository) SaveAssessment(ctx context.Context, a *Assessment) error {
	if a == nil || a.Result == nil {
		return apperrors.NewValidationError("assessment requires a scoring result", "result")
	}
	res := a.Result

	resultJSON, err := json.Marshal(res)
	if err != nil {
		return apperrors.NewPersistenceError("encode result", err)
	}
	featuresJSON, err := json.Marshal(a.Features)
	if err != nil {
		return apperrors.NewPersistenceError("encode features", err)
	}

	insertResult, err := r.db.GetPreparedStatement(stmtInsertResult)
	if err != nil {
		return apperrors.NewPersistenceError("save", err)
	}
	insertAttribution, err := r.db.GetPreparedStatement(stmtInsertAttribution)
	if err != nil {
		return apperrors.NewPersistenceError("save", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewPersistenceError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.StmtContext(ctx, insertResult).ExecContext(ctx,
		res.ScoringID, res.Timestamp.UTC().UnixNano(), res.RiskScore, string(res.RiskCategory),
		res.Confidence, string(res.ModelUsed), res.ModelName, res.AnalysisType,
		string(resultJSON), string(featuresJSON),
	)
	if err != nil {
		return apperrors.NewPersistenceError("insert result", err)
	}

	if exp := a.Explanation; exp != nil {
		expJSON, err := json.Marshal(exp)
		if err != nil {
			return apperrors.NewPersistenceError("encode explanation", err)
		}
		_, err = tx.StmtContext(ctx, insertAttribution).ExecContext(ctx,
			exp.ExplanationID, res.ScoringID, string(exp.AttributionMethod), string(expJSON), exp.CreatedAt.UTC().UnixNano(),
		)
		if err != nil {
			return apperrors.NewPersistenceError("insert attribution", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewPersistenceError("commit", err)
	}
	return nil
}

// GetAssessment loads one stored assessment by scoring id.
func (r *Repository) GetAssessment(ctx context.Context, id string) (*Assessment, error) {
	stmt, err := r.db.GetPreparedStatement(stmtGetResult)
	if err != nil {
		return nil, apperrors.NewPersistenceError("load", err)
	}

	a, err := scanAssessment(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("scoringId", id)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("load", err)
	}
	return a, nil
}

// ListAssessments returns assessments created in [From, To), newest first.
func (r *Repository) ListAssessments(ctx context.Context, filter ListFilter) ([]*Assessment, error) {
	from, to, limit := filter.bounds()
	if from > to {
		return nil, apperrors.NewValidationError("from must not be after to", "from", "to")
	}

	stmt, err := r.db.GetPreparedStatement(stmtListResults)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list", err)
	}

	rows, err := stmt.QueryContext(ctx, from, to, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list", err)
	}
	defer rows.Close()

	var out []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceError("list", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("list", err)
	}
	return out, nil
}

// DeleteAssessment removes a result and, by cascade, its explanation.
func (r *Repository) DeleteAssessment(ctx context.Context, id string) error {
	stmt, err := r.db.GetPreparedStatement(stmtDeleteResult)
	if err != nil {
		return apperrors.NewPersistenceError("delete", err)
	}

	res, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return apperrors.NewPersistenceError("delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("scoringId", id)
	}
	return nil
}

// DeleteBefore removes every result created before cutoff and returns how
// many were deleted.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	stmt, err := r.db.GetPreparedStatement(stmtDeleteBefore)
	if err != nil {
		return 0, apperrors.NewPersistenceError("purge", err)
	}

	res, err := stmt.ExecContext(ctx, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, apperrors.NewPersistenceError("purge", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssessment(s scanner) (*Assessment, error) {
	var resultJSON, featuresJSON string
	var expJSON sql.NullString
	if err := s.Scan(&resultJSON, &featuresJSON, &expJSON); err != nil {
		return nil, err
	}

	a := &Assessment{Result: &scoring.ScoringResult{}}
	if err := json.Unmarshal([]byte(resultJSON), a.Result); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}
	if err := json.Unmarshal([]byte(featuresJSON), &a.Features); err != nil {
		return nil, fmt.Errorf("failed to decode stored features: %w", err)
	}
	if expJSON.Valid {
		a.Explanation = &scoring.Explanation{}
		if err := json.Unmarshal([]byte(expJSON.String), a.Explanation); err != nil {
			return nil, fmt.Errorf("failed to decode stored explanation: %w", err)
		}
	}
	return a, nil
}
