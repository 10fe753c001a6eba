package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jask/aura/internal/health"
	"github.com/jask/aura/internal/llm"
	"github.com/jask/aura/internal/readiness"
	"github.com/jask/aura/internal/safety"
)

// Path names the branch a daily run took.
type Path string

const (
	PathEmptyHistory Path = "empty_history"
	PathDistress     Path = "distress"
	PathSynthesis    Path = "synthesis"
	PathFallback     Path = "fallback"
)

// Fixed insight texts for the locally synthesized branches.
const (
	InitializedTitle       = "Neural Core Initialized"
	InitializedDescription = "Log your first check-in to begin establishing a baseline."

	StabilizationTitle       = "Systemic Stabilization Active"
	StabilizationDescription = "High strain detected. Prioritize recovery."
	StabilizationReasoning   = "Safety Guard triggered by high stress/low mood correlation."

	FallbackTitle       = "Resilient Offline Core"
	FallbackDescription = "Deterministically calculating recovery scores."
)

// Hints are optional context passed to the narrative provider.
type Hints struct {
	Chronotype health.Chronotype
}

// Result is the outcome of one daily intelligence run. Insight and Readiness
// are always populated.
type Result struct {
	Insight    health.Insight
	Readiness  health.ReadinessScore
	LatencyMs  int64
	Confidence int
	Safety     health.SafetyReport
	Path       Path
}

// Orchestrator runs the daily pipeline: safety check, readiness, then either
// a local stabilization insight or a sanitized narrative insight.
type Orchestrator struct {
	Provider      llm.NarrativeProvider
	Clock         Clock
	IDs           IDGenerator
	Logger        *zap.Logger
	Timeout       time.Duration
	HistoryWindow int
}

// GenerateDailyIntelligence never fails. Provider errors, timeouts and
// malformed responses all produce the fallback insight.
func (o *Orchestrator) GenerateDailyIntelligence(ctx context.Context, subjectID string, logs []health.HealthLog, memories []health.AIMemoryNode, hints Hints) Result {
	clock, ids, log := resolve(o.Clock, o.IDs, o.Logger)
	log = log.With(zap.String("subject", subjectID))

	if len(logs) == 0 {
		log.Debug("daily intelligence", zap.String("path", string(PathEmptyHistory)))
		return Result{
			Insight: health.Insight{
				ID:              ids.NewID(),
				UserID:          subjectID,
				Title:           InitializedTitle,
				Description:     InitializedDescription,
				Type:            health.InsightNeutral,
				DateGenerated:   clock.Now(),
				ConfidenceScore: health.Confidence(100),
			},
			Readiness:  readiness.Calibration(),
			Confidence: 100,
			Path:       PathEmptyHistory,
		}
	}

	start := clock.Now()
	report := safety.Validate(logs)
	score := readiness.Estimate(logs)

	var (
		insight health.Insight
		path    Path
		err     error
	)
	if report.DistressSignalDetected {
		insight, path = stabilizationInsight(report), PathDistress
	} else {
		insight, err = o.synthesize(ctx, logs, memories, hints, score)
		path = PathSynthesis
		if err != nil {
			insight, path = fallbackInsight(), PathFallback
		}
	}
	insight.ID = ids.NewID()
	insight.UserID = subjectID

	now := clock.Now()
	insight.DateGenerated = now
	res := Result{
		Insight:    insight,
		Readiness:  score,
		LatencyMs:  now.Sub(start).Milliseconds(),
		Confidence: insight.Confidence(),
		Safety:     report,
		Path:       path,
	}

	fields := []zap.Field{
		zap.String("path", string(path)),
		zap.Int64("latency_ms", res.LatencyMs),
		zap.Bool("anomalous", report.IsAnomalous),
		zap.Int("readiness", score.Score),
	}
	switch path {
	case PathFallback:
		log.Warn("daily intelligence degraded", append(fields, zap.Error(err))...)
	case PathDistress:
		log.Info("daily intelligence stabilizing", fields...)
	default:
		log.Info("daily intelligence", fields...)
	}
	return res
}

func (o *Orchestrator) synthesize(ctx context.Context, logs []health.HealthLog, memories []health.AIMemoryNode, hints Hints, score health.ReadinessScore) (health.Insight, error) {
	if o.Provider == nil {
		return health.Insight{}, llm.ErrNoAPIKey
	}
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	window := o.HistoryWindow
	if window <= 0 {
		window = llm.DefaultHistoryWindow
	}

	res := o.Provider.DeepInsight(ctx, llm.InsightRequest{
		Logs:           health.Recent(logs, window),
		Memories:       memories,
		Chronotype:     hints.Chronotype,
		ReadinessScore: score.Score,
	})
	if !res.OK() {
		return health.Insight{}, res.Err
	}
	// a result arriving after the deadline counts as a timeout
	if err := ctx.Err(); err != nil {
		return health.Insight{}, err
	}
	insight := res.Insight
	if !insight.Type.Valid() || insight.Title == "" || insight.Description == "" {
		return health.Insight{}, llm.ErrMalformedResponse
	}
	if c := insight.ConfidenceScore; c != nil && (*c < 0 || *c > 100) {
		return health.Insight{}, fmt.Errorf("%w: confidence %d out of range", llm.ErrMalformedResponse, *c)
	}
	insight.ClinicalDisclaimer = health.ClinicalDisclaimer
	return safety.Sanitize(insight), nil
}

func stabilizationInsight(report health.SafetyReport) health.Insight {
	desc := report.StabilizingAdvice
	if desc == "" {
		desc = StabilizationDescription
	}
	return health.Insight{
		Title:              StabilizationTitle,
		Description:        desc,
		Type:               health.InsightWarning,
		ConfidenceScore:    health.Confidence(100),
		Reasoning:          []string{StabilizationReasoning},
		ClinicalDisclaimer: health.StabilizationDisclaimer,
	}
}

func fallbackInsight() health.Insight {
	return health.Insight{
		Title:              FallbackTitle,
		Description:        FallbackDescription,
		Type:               health.InsightNeutral,
		ClinicalDisclaimer: health.ClinicalDisclaimer,
	}
}

// resolve fills unset collaborators with the real clock, random ids and a
// no-op logger.
func resolve(clock Clock, ids IDGenerator, log *zap.Logger) (Clock, IDGenerator, *zap.Logger) {
	if clock == nil {
		clock = SystemClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return clock, ids, log
}
