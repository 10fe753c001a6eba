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

// DefaultForecastDays is the horizon used when none is given.
const DefaultForecastDays = 7

// ForecastService predicts metric trends. Forecasts are not stored.
type ForecastService struct {
	Provider llm.NarrativeProvider
	Logs     *repository.HealthLogRepo
	Logger   *zap.Logger
	Timeout  time.Duration
}

// Forecast returns an empty slice when the provider cannot help.
func (s *ForecastService) Forecast(ctx context.Context, subjectID string, days int) ([]health.Forecast, error) {
	_, _, log := resolve(nil, nil, s.Logger)
	if days <= 0 {
		days = DefaultForecastDays
	}
	logs, err := s.Logs.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load logs: %w", err)
	}
	if len(logs) == 0 {
		return []health.Forecast{}, nil
	}

	pctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	out, err := s.Provider.Forecast(pctx, llm.ForecastRequest{Logs: logs, Days: days})
	if err != nil {
		log.Warn("forecast unavailable", zap.String("subject", subjectID), zap.Error(err))
		return []health.Forecast{}, nil
	}
	if out == nil {
		out = []health.Forecast{}
	}
	return out, nil
}
