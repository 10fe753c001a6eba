package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/aura/internal/health"
)

// InsightRepo handles generated insights.
type InsightRepo struct {
	db *sql.DB
}

func NewInsightRepo(db *sql.DB) *InsightRepo { return &InsightRepo{db: db} }

func (r *InsightRepo) Insert(ctx context.Context, i health.Insight) error {
	var conf sql.NullInt64
	if i.ConfidenceScore != nil {
		conf = sql.NullInt64{Int64: int64(*i.ConfidenceScore), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO insights(id, user_id, title, description, type, date_generated, confidence_score, reasoning, prediction, clinical_disclaimer)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.UserID, i.Title, i.Description, string(i.Type), i.DateGenerated.UTC(), conf,
		encodeList(i.Reasoning), i.Prediction, i.ClinicalDisclaimer)
	return err
}

// ListBySubject returns the newest insights first. limit <= 0 means all.
func (r *InsightRepo) ListBySubject(ctx context.Context, userID string, limit int) ([]health.Insight, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, title, description, type, date_generated, confidence_score, reasoning, prediction, clinical_disclaimer
	FROM insights WHERE user_id = ? ORDER BY date_generated DESC, id LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []health.Insight
	for rows.Next() {
		var (
			i         health.Insight
			typ       string
			conf      sql.NullInt64
			reasoning string
		)
		if err := rows.Scan(&i.ID, &i.UserID, &i.Title, &i.Description, &typ, &i.DateGenerated, &conf, &reasoning, &i.Prediction, &i.ClinicalDisclaimer); err != nil {
			return nil, err
		}
		i.Type = health.InsightType(typ)
		if conf.Valid {
			i.ConfidenceScore = health.Confidence(int(conf.Int64))
		}
		if i.Reasoning, err = decodeList(reasoning); err != nil {
			return nil, fmt.Errorf("insight %s reasoning: %w", i.ID, err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
