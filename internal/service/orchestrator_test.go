package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jask/aura/internal/health"
	"github.com/jask/aura/internal/llm"
	"github.com/jask/aura/internal/safety"
)

func newOrchestrator(p llm.NarrativeProvider) *Orchestrator {
	return &Orchestrator{
		Provider: p,
		Clock:    newFakeClock(25 * time.Millisecond),
		IDs:      &seqIDs{},
	}
}

func TestEmptyHistoryIsTerminal(t *testing.T) {
	t.Parallel()
	p := &fakeProvider{insight: goodInsight()}
	res := newOrchestrator(p).GenerateDailyIntelligence(context.Background(), "subj", nil, nil, Hints{})

	assert.Equal(t, PathEmptyHistory, res.Path)
	assert.Equal(t, int64(0), res.LatencyMs)
	assert.Equal(t, 100, res.Confidence)
	assert.Equal(t, InitializedTitle, res.Insight.Title)
	assert.Equal(t, InitializedDescription, res.Insight.Description)
	assert.Equal(t, health.InsightNeutral, res.Insight.Type)
	assert.Equal(t, 50, res.Readiness.Score)
	assert.Equal(t, health.StateMaintain, res.Readiness.State)
	assert.Equal(t, health.SafetyReport{}, res.Safety)
	assert.Zero(t, p.count("insight"))
}

func TestDistressBypassesProvider(t *testing.T) {
	t.Parallel()
	p := &fakeProvider{insight: goodInsight()}
	logs := makeLogs(5, calm)
	logs[4].Stress, logs[4].Mood = 9, 3

	res := newOrchestrator(p).GenerateDailyIntelligence(context.Background(), "subj", logs, nil, Hints{})

	require.Equal(t, PathDistress, res.Path)
	assert.Zero(t, p.count("insight"), "provider must not run while distressed")
	assert.True(t, res.Safety.DistressSignalDetected)
	assert.True(t, res.Safety.IsAnomalous)
	assert.Equal(t, StabilizationTitle, res.Insight.Title)
	assert.Equal(t, safety.StabilizingAdvice, res.Insight.Description)
	assert.Equal(t, health.InsightWarning, res.Insight.Type)
	assert.Equal(t, []string{StabilizationReasoning}, res.Insight.Reasoning)
	assert.Equal(t, health.StabilizationDisclaimer, res.Insight.ClinicalDisclaimer)
	assert.Equal(t, 100, res.Confidence)
	assert.Equal(t, int64(25), res.LatencyMs)
	assert.Equal(t, "subj", res.Insight.UserID)
	assert.Equal(t, "id-1", res.Insight.ID)
}

func TestDistressBoundary(t *testing.T) {
	t.Parallel()
	p := &fakeProvider{insight: goodInsight()}
	logs := makeLogs(3, calm)
	logs[2].Stress, logs[2].Mood = 9, 4

	res := newOrchestrator(p).GenerateDailyIntelligence(context.Background(), "subj", logs, nil, Hints{})
	assert.Equal(t, PathSynthesis, res.Path)
	assert.Equal(t, 1, p.count("insight"))
}

func TestSynthesisIsSanitizedAndStamped(t *testing.T) {
	t.Parallel()
	raw := goodInsight()
	raw.Insight.Description = "Take 200mg of magnesium and we can diagnose the rest."
	p := &fakeProvider{insight: raw}
	logs := makeLogs(20, calm)
	o := newOrchestrator(p)
	o.HistoryWindow = 14

	res := o.GenerateDailyIntelligence(context.Background(), "subj", logs, []health.AIMemoryNode{{ID: "m1"}}, Hints{Chronotype: health.ChronotypeWolf})

	require.Equal(t, PathSynthesis, res.Path)
	assert.Equal(t, "[Clinical Boundary Reached] of magnesium and we can [Clinical Boundary Reached] the rest.", res.Insight.Description)
	assert.Equal(t, "Sleep Momentum", res.Insight.Title)
	assert.Equal(t, 82, res.Confidence)
	assert.Equal(t, "id-1", res.Insight.ID)
	assert.Equal(t, "subj", res.Insight.UserID)
	assert.Equal(t, time.Date(2026, 6, 1, 9, 0, 0, 25*int(time.Millisecond), time.UTC), res.Insight.DateGenerated)
	assert.Equal(t, int64(25), res.LatencyMs)
	assert.Equal(t, health.ClinicalDisclaimer, res.Insight.ClinicalDisclaimer)

	req := p.lastInsight
	assert.Len(t, req.Logs, 14)
	assert.Equal(t, "log-19", req.Logs[13].ID)
	assert.Equal(t, health.ChronotypeWolf, req.Chronotype)
	assert.Equal(t, res.Readiness.Score, req.ReadinessScore)
	assert.Len(t, req.Memories, 1)
}

func TestSynthesisStampsFixedDisclaimer(t *testing.T) {
	t.Parallel()
	for name, disclaimer := range map[string]string{
		"missing":    "",
		"overridden": "This is a medical diagnosis.",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			raw := goodInsight()
			raw.Insight.ClinicalDisclaimer = disclaimer
			res := newOrchestrator(&fakeProvider{insight: raw}).GenerateDailyIntelligence(context.Background(), "subj", makeLogs(3, calm), nil, Hints{})
			assert.Equal(t, PathSynthesis, res.Path)
			assert.Equal(t, health.ClinicalDisclaimer, res.Insight.ClinicalDisclaimer)
		})
	}
}

func TestProviderFailureFallsBack(t *testing.T) {
	t.Parallel()
	cases := map[string]llm.InsightResult{
		"error":         llm.Failed(errors.New("boom")),
		"no key":        llm.Failed(llm.ErrNoAPIKey),
		"bad type":      {Insight: health.Insight{Title: "t", Description: "d", Type: "alarming"}},
		"missing title": {Insight: health.Insight{Description: "d", Type: health.InsightNeutral}},
		"confidence high": {Insight: health.Insight{Title: "t", Description: "d", Type: health.InsightNeutral,
			ConfidenceScore: health.Confidence(250)}},
		"confidence negative": {Insight: health.Insight{Title: "t", Description: "d", Type: health.InsightNeutral,
			ConfidenceScore: health.Confidence(-5)}},
	}
	for name, result := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			logs := makeLogs(4, calm)
			res := newOrchestrator(&fakeProvider{insight: result}).GenerateDailyIntelligence(context.Background(), "subj", logs, nil, Hints{})

			assert.Equal(t, PathFallback, res.Path)
			assert.Equal(t, FallbackTitle, res.Insight.Title)
			assert.Equal(t, FallbackDescription, res.Insight.Description)
			assert.Equal(t, health.InsightNeutral, res.Insight.Type)
			assert.Nil(t, res.Insight.ConfidenceScore)
			assert.Zero(t, res.Confidence)
			assert.Equal(t, health.ClinicalDisclaimer, res.Insight.ClinicalDisclaimer)
			assert.Equal(t, 65, res.Readiness.Score)
			assert.Equal(t, health.StateMaintain, res.Readiness.State)
		})
	}
}

func TestNilProviderFallsBack(t *testing.T) {
	t.Parallel()
	res := newOrchestrator(nil).GenerateDailyIntelligence(context.Background(), "subj", makeLogs(3, calm), nil, Hints{})
	assert.Equal(t, PathFallback, res.Path)
}

func TestProviderTimeoutFallsBack(t *testing.T) {
	t.Parallel()
	p := &fakeProvider{insightFn: func(ctx context.Context, _ llm.InsightRequest) llm.InsightResult {
		<-ctx.Done()
		return llm.Failed(ctx.Err())
	}}
	o := newOrchestrator(p)
	o.Timeout = 20 * time.Millisecond

	done := make(chan Result, 1)
	go func() {
		done <- o.GenerateDailyIntelligence(context.Background(), "subj", makeLogs(3, calm), nil, Hints{})
	}()
	select {
	case res := <-done:
		assert.Equal(t, PathFallback, res.Path)
		assert.Equal(t, health.InsightNeutral, res.Insight.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not honour its timeout")
	}
}

func TestLateResultCountsAsTimeout(t *testing.T) {
	t.Parallel()
	p := &fakeProvider{insightFn: func(ctx context.Context, _ llm.InsightRequest) llm.InsightResult {
		<-ctx.Done()
		return goodInsight()
	}}
	o := newOrchestrator(p)
	o.Timeout = 10 * time.Millisecond
	res := o.GenerateDailyIntelligence(context.Background(), "subj", makeLogs(3, calm), nil, Hints{})
	assert.Equal(t, PathFallback, res.Path)
}

func TestCallerCancellationFallsBack(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProvider{insightFn: func(ctx context.Context, _ llm.InsightRequest) llm.InsightResult {
		return llm.Failed(ctx.Err())
	}}
	res := newOrchestrator(p).GenerateDailyIntelligence(ctx, "subj", makeLogs(3, calm), nil, Hints{})
	assert.Equal(t, PathFallback, res.Path)
}

func TestAnomalyDoesNotChangePath(t *testing.T) {
	t.Parallel()
	logs := makeLogs(3, calm)
	logs[2].SleepQuality, logs[2].Energy = 2, 9
	p := &fakeProvider{insight: goodInsight()}

	res := newOrchestrator(p).GenerateDailyIntelligence(context.Background(), "subj", logs, nil, Hints{})
	assert.Equal(t, PathSynthesis, res.Path)
	assert.True(t, res.Safety.IsAnomalous)
	assert.False(t, res.Safety.DistressSignalDetected)
}

func TestOrchestratorLogsPathWithoutNarrative(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)
	o := newOrchestrator(&fakeProvider{insight: llm.Failed(errors.New("upstream 503"))})
	o.Logger = zap.New(core)

	o.GenerateDailyIntelligence(context.Background(), "subj", makeLogs(3, calm), nil, Hints{})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "fallback", fields["path"])
	assert.Equal(t, "subj", fields["subject"])
	assert.Equal(t, "upstream 503", fields["error"])
	assert.Contains(t, fields, "latency_ms")
	assert.Contains(t, fields, "anomalous")
}

func TestConcurrentRunsAreIndependent(t *testing.T) {
	t.Parallel()
	p := &fakeProvider{insight: goodInsight()}
	o := newOrchestrator(p)
	results := make(chan Result, 8)
	for i := 0; i < 8; i++ {
		go func() {
			results <- o.GenerateDailyIntelligence(context.Background(), "subj", makeLogs(5, calm), nil, Hints{})
		}()
	}
	ids := map[string]bool{}
	for i := 0; i < 8; i++ {
		res := <-results
		assert.Equal(t, PathSynthesis, res.Path)
		ids[res.Insight.ID] = true
	}
	assert.Len(t, ids, 8)
	assert.Equal(t, 8, p.count("insight"))
}
