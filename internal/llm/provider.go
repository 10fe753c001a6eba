package llm

import (
	"context"
	"errors"

	"github.com/jask/aura/internal/health"
)

// Collaborator failures. Callers branch on these with errors.Is; none of them
// is meant to reach an end user.
var (
	ErrNoAPIKey            = errors.New("llm: api key not configured")
	ErrEmptyResponse       = errors.New("llm: empty response")
	ErrMalformedResponse   = errors.New("llm: malformed response")
	ErrInsufficientHistory = errors.New("llm: not enough history")
)

// Minimum history for the supplementary syntheses.
const (
	MinBriefingLogs   = 7
	MinMemoryLogs     = 7
	MinChronotypeLogs = 5
)

// DefaultHistoryWindow bounds the logs sent with an insight request.
const DefaultHistoryWindow = 14

// NarrativeProvider is the external narrative-generation service.
type NarrativeProvider interface {
	DeepInsight(ctx context.Context, req InsightRequest) InsightResult
	WeeklyBriefing(ctx context.Context, req BriefingRequest) (health.WeeklyBriefing, error)
	SynthesizeMemory(ctx context.Context, req MemoryRequest) (health.AIMemoryNode, error)
	DetectChronotype(ctx context.Context, req ChronotypeRequest) (health.Chronotype, error)
	Forecast(ctx context.Context, req ForecastRequest) ([]health.Forecast, error)
}

// InsightRequest carries the context for one daily insight.
type InsightRequest struct {
	Logs           []health.HealthLog
	Memories       []health.AIMemoryNode
	Chronotype     health.Chronotype
	ReadinessScore int
}

// InsightResult is either a validated insight or the reason there is none.
// Insight carries title, description, type, confidence, reasoning,
// prediction and disclaimer; ids and timestamps are left to the caller.
type InsightResult struct {
	Insight health.Insight
	Err     error
}

// OK reports whether the result holds a usable insight.
func (r InsightResult) OK() bool { return r.Err == nil }

// Failed wraps err as an InsightResult.
func Failed(err error) InsightResult { return InsightResult{Err: err} }

// BriefingRequest covers the last week of logs.
type BriefingRequest struct {
	Logs     []health.HealthLog
	Memories []health.AIMemoryNode
}

// MemoryRequest asks for a long-term summary node over Logs.
type MemoryRequest struct {
	Logs []health.HealthLog
}

// ChronotypeRequest asks for a chronotype classification.
type ChronotypeRequest struct {
	Logs []health.HealthLog
}

// ForecastRequest asks for per-metric predictions up to Days ahead.
type ForecastRequest struct {
	Logs []health.HealthLog
	Days int
}

// normalizeInsightRequest applies defaults for missing hints.
func normalizeInsightRequest(req InsightRequest, window int) InsightRequest {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	req.Logs = health.Recent(req.Logs, window)
	if req.Chronotype == "" {
		req.Chronotype = health.ChronotypeUnknown
	}
	return req
}
