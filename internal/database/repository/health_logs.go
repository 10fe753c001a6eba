package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/aura/internal/health"
)

// HealthLogRepo handles daily logs.
type HealthLogRepo struct {
	db *sql.DB
}

func NewHealthLogRepo(db *sql.DB) *HealthLogRepo { return &HealthLogRepo{db: db} }

const logColumns = `id, user_id, date, mood, energy, sleep_quality, stress, sleep_phases, activity, nutrition, symptoms, notes`

// Insert stores a log. Logs are immutable; there is no update path.
func (r *HealthLogRepo) Insert(ctx context.Context, l health.HealthLog) error {
	phases, err := encodeOptional(l.SleepPhases)
	if err != nil {
		return fmt.Errorf("encode sleep phases: %w", err)
	}
	activity, err := encodeOptional(l.Activity)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}
	nutrition, err := encodeOptional(l.Nutrition)
	if err != nil {
		return fmt.Errorf("encode nutrition: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO health_logs(`+logColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Date.UTC(), l.Mood, l.Energy, l.SleepQuality, l.Stress,
		phases, activity, nutrition, encodeList(l.Symptoms), l.Notes)
	return err
}

// ListBySubject returns every log of a subject, oldest first.
func (r *HealthLogRepo) ListBySubject(ctx context.Context, userID string) ([]health.HealthLog, error) {
	return r.query(ctx, `SELECT `+logColumns+` FROM health_logs WHERE user_id = ? ORDER BY date, created_at, id`, userID)
}

// Recent returns the latest n logs of a subject, oldest first.
func (r *HealthLogRepo) Recent(ctx context.Context, userID string, n int) ([]health.HealthLog, error) {
	return r.query(ctx, `SELECT `+logColumns+` FROM (
		SELECT * FROM health_logs WHERE user_id = ? ORDER BY date DESC, created_at DESC, id DESC LIMIT ?
	) ORDER BY date, created_at, id`, userID, n)
}

// Count returns how many logs a subject has.
func (r *HealthLogRepo) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM health_logs WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (r *HealthLogRepo) query(ctx context.Context, q string, args ...any) ([]health.HealthLog, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []health.HealthLog
	for rows.Next() {
		var (
			l                           health.HealthLog
			phases, activity, nutrition sql.NullString
			symptoms                    string
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.Date, &l.Mood, &l.Energy, &l.SleepQuality, &l.Stress,
			&phases, &activity, &nutrition, &symptoms, &l.Notes); err != nil {
			return nil, err
		}
		if l.SleepPhases, err = decodeOptional[health.SleepPhases](phases); err != nil {
			return nil, fmt.Errorf("log %s sleep phases: %w", l.ID, err)
		}
		if l.Activity, err = decodeOptional[health.ActivityLog](activity); err != nil {
			return nil, fmt.Errorf("log %s activity: %w", l.ID, err)
		}
		if l.Nutrition, err = decodeOptional[health.NutritionLog](nutrition); err != nil {
			return nil, fmt.Errorf("log %s nutrition: %w", l.ID, err)
		}
		if l.Symptoms, err = decodeList(symptoms); err != nil {
			return nil, fmt.Errorf("log %s symptoms: %w", l.ID, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
