package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jask/aura/internal/database/repository"
	"github.com/jask/aura/internal/health"
	"github.com/jask/aura/internal/llm"
	"github.com/jask/aura/internal/safety"
)

// MemorySynthesizer condenses log history into the first long-term memory
// node of a subject.
type MemorySynthesizer struct {
	Provider llm.NarrativeProvider
	Memories *repository.MemoryRepo
	Clock    Clock
	IDs      IDGenerator
	Logger   *zap.Logger
	Timeout  time.Duration
	MinLogs  int
	Window   int
}

// Synthesize returns the stored node, or nil when the subject already has
// memories or too little history.
func (m *MemorySynthesizer) Synthesize(ctx context.Context, subjectID string, logs []health.HealthLog, existing []health.AIMemoryNode) (*health.AIMemoryNode, error) {
	minLogs := m.MinLogs
	if minLogs <= 0 {
		minLogs = llm.MinMemoryLogs
	}
	if len(existing) > 0 || len(logs) < minLogs {
		return nil, nil
	}
	_, ids, _ := resolve(m.Clock, m.IDs, m.Logger)

	window := m.Window
	if window <= 0 {
		window = llm.DefaultHistoryWindow
	}
	input := health.Recent(logs, window)

	ctx, cancel := withTimeout(ctx, m.Timeout)
	defer cancel()
	node, err := m.Provider.SynthesizeMemory(ctx, llm.MemoryRequest{Logs: input})
	if err != nil {
		return nil, fmt.Errorf("synthesize memory: %w", err)
	}

	node = safety.SanitizeMemory(node)
	node.ID = ids.NewID()
	node.UserID = subjectID
	node.LineageIDs = knownLineage(node.LineageIDs, input)
	node.KeyPatterns = health.DedupePatterns(node.KeyPatterns)
	if node.DateRange.Start.IsZero() || node.DateRange.End.IsZero() {
		node.DateRange = health.DateRange{Start: input[0].Date, End: input[len(input)-1].Date}
	}
	if m.Memories != nil {
		if err := m.Memories.Insert(ctx, node); err != nil {
			return nil, fmt.Errorf("store memory: %w", err)
		}
	}
	return &node, nil
}

// knownLineage keeps lineage ids that name one of the input logs. A node
// citing none of them is attributed to the whole input.
func knownLineage(claimed []string, input []health.HealthLog) []string {
	known := make(map[string]bool, len(input))
	for _, l := range input {
		known[l.ID] = true
	}
	var out []string
	seen := map[string]bool{}
	for _, id := range claimed {
		if known[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return health.IDs(input)
	}
	return out
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
