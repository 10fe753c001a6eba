package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jask/aura/internal/database/repository"
	"github.com/jask/aura/internal/health"
	"github.com/jask/aura/internal/llm"
	"github.com/jask/aura/internal/safety"
)

// BriefingService produces the weekly narrative on request.
type BriefingService struct {
	Provider  llm.NarrativeProvider
	Logs      *repository.HealthLogRepo
	Memories  *repository.MemoryRepo
	Briefings *repository.BriefingRepo
	Clock     Clock
	IDs       IDGenerator
	Timeout   time.Duration
	MinLogs   int
}

// Generate builds, sanitizes and stores a briefing over the last week.
func (s *BriefingService) Generate(ctx context.Context, subjectID string) (health.WeeklyBriefing, error) {
	clock, ids, _ := resolve(s.Clock, s.IDs, nil)
	minLogs := s.MinLogs
	if minLogs <= 0 {
		minLogs = llm.MinBriefingLogs
	}

	logs, err := s.Logs.ListBySubject(ctx, subjectID)
	if err != nil {
		return health.WeeklyBriefing{}, fmt.Errorf("load logs: %w", err)
	}
	if len(logs) < minLogs {
		return health.WeeklyBriefing{}, fmt.Errorf("weekly briefing needs %d logs, have %d: %w", minLogs, len(logs), llm.ErrInsufficientHistory)
	}
	memories, err := s.Memories.ListBySubject(ctx, subjectID)
	if err != nil {
		return health.WeeklyBriefing{}, fmt.Errorf("load memories: %w", err)
	}

	pctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	b, err := s.Provider.WeeklyBriefing(pctx, llm.BriefingRequest{Logs: health.Recent(logs, 7), Memories: memories})
	if err != nil {
		return health.WeeklyBriefing{}, fmt.Errorf("weekly briefing: %w", err)
	}
	if b.NarrativeSummary == "" || !b.BiologicalTrajectory.Valid() {
		return health.WeeklyBriefing{}, fmt.Errorf("weekly briefing: %w", llm.ErrMalformedResponse)
	}

	now := clock.Now()
	b = safety.SanitizeBriefing(b)
	b.ID = ids.NewID()
	b.UserID = subjectID
	b.CreatedAt = now
	if b.WeekLabel == "" {
		b.WeekLabel = WeekLabel(now)
	}
	if err := s.Briefings.Insert(ctx, b); err != nil {
		return health.WeeklyBriefing{}, fmt.Errorf("store briefing: %w", err)
	}
	return b, nil
}

// WeekLabel formats t as an ISO week, e.g. 2026-W09.
func WeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
