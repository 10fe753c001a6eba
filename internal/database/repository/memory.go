package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/aura/internal/health"
)

// MemoryRepo handles long-term memory nodes.
type MemoryRepo struct {
	db *sql.DB
}

func NewMemoryRepo(db *sql.DB) *MemoryRepo { return &MemoryRepo{db: db} }

func (r *MemoryRepo) Insert(ctx context.Context, m health.AIMemoryNode) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO memory_nodes(id, user_id, range_start, range_end, summary, key_patterns, emotional_tone, lineage_ids)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.DateRange.Start.UTC(), m.DateRange.End.UTC(), m.Summary,
		encodeList(m.KeyPatterns), m.EmotionalTone, encodeList(m.LineageIDs))
	return err
}

// ListBySubject returns memory nodes ordered by the end of their range.
func (r *MemoryRepo) ListBySubject(ctx context.Context, userID string) ([]health.AIMemoryNode, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, range_start, range_end, summary, key_patterns, emotional_tone, lineage_ids
	FROM memory_nodes WHERE user_id = ? ORDER BY range_end, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []health.AIMemoryNode
	for rows.Next() {
		var (
			m                 health.AIMemoryNode
			patterns, lineage string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.DateRange.Start, &m.DateRange.End, &m.Summary, &patterns, &m.EmotionalTone, &lineage); err != nil {
			return nil, err
		}
		if m.KeyPatterns, err = decodeList(patterns); err != nil {
			return nil, fmt.Errorf("memory %s patterns: %w", m.ID, err)
		}
		if m.LineageIDs, err = decodeList(lineage); err != nil {
			return nil, fmt.Errorf("memory %s lineage: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
