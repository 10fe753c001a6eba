package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/aura/internal/health"
)

// BriefingRepo handles weekly briefings.
type BriefingRepo struct {
	db *sql.DB
}

func NewBriefingRepo(db *sql.DB) *BriefingRepo { return &BriefingRepo{db: db} }

func (r *BriefingRepo) Insert(ctx context.Context, b health.WeeklyBriefing) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO weekly_briefings(id, user_id, week_label, narrative_summary, trajectory, correlations, sovereignty_check, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.WeekLabel, b.NarrativeSummary, string(b.BiologicalTrajectory),
		encodeList(b.CriticalCorrelations), b.SovereigntyCheck, b.CreatedAt.UTC())
	return err
}

// ListBySubject returns briefings newest first.
func (r *BriefingRepo) ListBySubject(ctx context.Context, userID string) ([]health.WeeklyBriefing, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, week_label, narrative_summary, trajectory, correlations, sovereignty_check, created_at
	FROM weekly_briefings WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []health.WeeklyBriefing
	for rows.Next() {
		var (
			b          health.WeeklyBriefing
			traj, corr string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.WeekLabel, &b.NarrativeSummary, &traj, &corr, &b.SovereigntyCheck, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.BiologicalTrajectory = health.Trajectory(traj)
		if b.CriticalCorrelations, err = decodeList(corr); err != nil {
			return nil, fmt.Errorf("briefing %s correlations: %w", b.ID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
