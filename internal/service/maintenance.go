package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/aura/internal/database"
)

// MaintenanceService houses destructive actions surfaced through the CLI.
type MaintenanceService struct {
	DB *sql.DB
}

// subjectTables are cleared child-first.
var subjectTables = []string{
	"insights",
	"weekly_briefings",
	"memory_nodes",
	"health_logs",
}

// ClearSubjectData deletes everything recorded for one subject and resets its
// calibration. The subject itself stays registered.
func (s *MaintenanceService) ClearSubjectData(ctx context.Context, subjectID string) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	return database.WithTx(s.DB, func(tx *sql.Tx) error {
		for _, t := range subjectTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t+" WHERE user_id = ?", subjectID); err != nil {
				return fmt.Errorf("clear table %s: %w", t, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "UPDATE users SET is_calibrated = 0, chronotype = 'Unknown' WHERE id = ?", subjectID); err != nil {
			return fmt.Errorf("reset subject: %w", err)
		}
		return nil
	})
}

// Reset wipes all data including subjects. It keeps the schema intact so the
// app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		for _, t := range append(subjectTables, "users") {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
