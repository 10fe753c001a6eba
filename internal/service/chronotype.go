package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jask/aura/internal/database/repository"
	"github.com/jask/aura/internal/health"
	"github.com/jask/aura/internal/llm"
)

// ChronotypeService classifies a subject and stores the label on its profile.
type ChronotypeService struct {
	Provider llm.NarrativeProvider
	Logs     *repository.HealthLogRepo
	Users    *repository.UserRepo
	Logger   *zap.Logger
	Timeout  time.Duration
	MinLogs  int
}

// Detect returns Unknown when history is short or the provider fails. Only
// persistence problems are returned as errors.
func (s *ChronotypeService) Detect(ctx context.Context, subjectID string) (health.Chronotype, error) {
	_, _, log := resolve(nil, nil, s.Logger)
	minLogs := s.MinLogs
	if minLogs <= 0 {
		minLogs = llm.MinChronotypeLogs
	}
	logs, err := s.Logs.ListBySubject(ctx, subjectID)
	if err != nil {
		return health.ChronotypeUnknown, fmt.Errorf("load logs: %w", err)
	}
	if len(logs) < minLogs {
		return health.ChronotypeUnknown, nil
	}

	pctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	c, err := s.Provider.DetectChronotype(pctx, llm.ChronotypeRequest{Logs: logs})
	if err != nil {
		log.Warn("chronotype detection failed", zap.String("subject", subjectID), zap.Error(err))
		return health.ChronotypeUnknown, nil
	}
	c = health.ParseChronotype(string(c))
	if c == health.ChronotypeUnknown {
		return c, nil
	}
	if err := s.Users.UpdateChronotype(ctx, subjectID, c); err != nil {
		return c, fmt.Errorf("store chronotype: %w", err)
	}
	return c, nil
}
