package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jask/aura/internal/database/repository"
	"github.com/jask/aura/internal/health"
	"github.com/jask/aura/internal/safety"
)

// CalibrationLogs is the history a subject needs before leaving calibration.
const CalibrationLogs = 7

// IntelligenceService is the persisted daily flow around the Orchestrator.
type IntelligenceService struct {
	Orchestrator *Orchestrator
	Memory       *MemorySynthesizer
	Users        *repository.UserRepo
	Logs         *repository.HealthLogRepo
	Memories     *repository.MemoryRepo
	Insights     *repository.InsightRepo
	Logger       *zap.Logger

	PersistInsights bool
}

// DailyReport is a Result plus the subject-level state around it.
type DailyReport struct {
	Result
	Subject     health.User
	Calibrating bool
	NewMemory   *health.AIMemoryNode
}

// Run loads the subject's history, optionally grows its memory, and produces
// the daily insight. Memory synthesis is skipped on a distress day. A non-nil error with a populated report means the
// insight was generated but could not be stored.
func (s *IntelligenceService) Run(ctx context.Context, subjectID string, hints Hints) (DailyReport, error) {
	_, _, log := resolve(nil, nil, s.Logger)

	var (
		user     *health.User
		logs     []health.HealthLog
		memories []health.AIMemoryNode
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.Users.ByID(gctx, subjectID)
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.Logs.ListBySubject(gctx, subjectID)
		return err
	})
	g.Go(func() error {
		var err error
		memories, err = s.Memories.ListBySubject(gctx, subjectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return DailyReport{}, fmt.Errorf("load history: %w", err)
	}
	if user == nil {
		return DailyReport{}, fmt.Errorf("subject %s not found", subjectID)
	}

	report := DailyReport{Subject: *user, Calibrating: len(logs) < CalibrationLogs}

	// no generated text while a distress signal is active
	if s.Memory != nil && !safety.Validate(logs).DistressSignalDetected {
		node, err := s.Memory.Synthesize(ctx, subjectID, logs, memories)
		if err != nil {
			log.Warn("memory synthesis skipped", zap.String("subject", subjectID), zap.Error(err))
		} else if node != nil {
			memories = append(memories, *node)
			report.NewMemory = node
		}
	}

	if hints.Chronotype == "" || hints.Chronotype == health.ChronotypeUnknown {
		hints.Chronotype = user.Chronotype
	}
	report.Result = s.Orchestrator.GenerateDailyIntelligence(ctx, subjectID, logs, memories, hints)

	if !report.Calibrating && !user.IsCalibrated {
		if err := s.Users.SetCalibrated(ctx, subjectID, true); err != nil {
			return report, fmt.Errorf("mark calibrated: %w", err)
		}
		report.Subject.IsCalibrated = true
	}
	if s.PersistInsights && report.Path != PathEmptyHistory {
		if err := s.Insights.Insert(ctx, report.Insight); err != nil {
			return report, fmt.Errorf("store insight: %w", err)
		}
	}
	return report, nil
}
