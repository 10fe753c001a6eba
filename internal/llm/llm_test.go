package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jask/aura/internal/health"
)

func daysOfLogs(n int, f func(i int) health.HealthLog) []health.HealthLog {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]health.HealthLog, n)
	for i := range out {
		l := f(i)
		l.ID = fmt.Sprintf("log-%02d", i)
		l.Date = start.AddDate(0, 0, i)
		out[i] = l
	}
	return out
}

func steady(i int) health.HealthLog {
	return health.HealthLog{SleepQuality: 7, Energy: 6, Stress: 4, Mood: 6}
}

func TestDecodeInsight(t *testing.T) {
	t.Parallel()

	text := "```json\n" + `{"title":" Sleep Momentum ","description":"Deep sleep rose.","type":"Positive","confidenceScore":87.6,"reasoning":["a","", " b "],"prediction":"Up."}` + "\n```"
	got, err := DecodeInsight(text)
	require.NoError(t, err)
	assert.Equal(t, "Sleep Momentum", got.Title)
	assert.Equal(t, health.InsightPositive, got.Type)
	assert.Equal(t, 88, got.Confidence())
	assert.Equal(t, []string{"a", "b"}, got.Reasoning)
	assert.Equal(t, "Up.", got.Prediction)
	assert.Equal(t, health.ClinicalDisclaimer, got.ClinicalDisclaimer)
	assert.Empty(t, got.ID)
	assert.True(t, got.DateGenerated.IsZero())
}

func TestDecodeInsightMissingConfidenceIsAbsent(t *testing.T) {
	t.Parallel()

	got, err := DecodeInsight(`Here you go: {"title":"t","description":"d","type":"neutral"}`)
	require.NoError(t, err)
	assert.Nil(t, got.ConfidenceScore)
}

func TestDecodeInsightRejectsMalformed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":        "I cannot help with that.",
		"missing title":   `{"description":"d","type":"neutral"}`,
		"missing desc":    `{"title":"t","description":"   ","type":"neutral"}`,
		"bad type":        `{"title":"t","description":"d","type":"alarming"}`,
		"confidence high": `{"title":"t","description":"d","type":"neutral","confidenceScore":140}`,
		"confidence neg":  `{"title":"t","description":"d","type":"neutral","confidenceScore":-1}`,
		"wrong shape":     `{"title":["t"],"description":"d","type":"neutral"}`,
		"unknown field":   `{"title":"t","description":"d","type":"neutral","clinicalDisclaimer":"x"}`,
	}
	for name, text := range cases {
		_, err := DecodeInsight(text)
		assert.ErrorIs(t, err, ErrMalformedResponse, name)
	}

	_, err := DecodeInsight("  ")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestDecodeBriefingAndMemory(t *testing.T) {
	t.Parallel()

	b, err := DecodeBriefing(`{"narrativeSummary":"Calm week.","biologicalTrajectory":"Plateau","criticalCorrelations":["sleep~mood"],"sovereigntyCheck":"ok"}`)
	require.NoError(t, err)
	assert.Equal(t, health.TrajectoryPlateau, b.BiologicalTrajectory)

	_, err = DecodeBriefing(`{"narrativeSummary":"Calm week.","biologicalTrajectory":"Sideways"}`)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	m, err := DecodeMemory(`{"summary":"Two weeks of steady sleep.","keyPatterns":["late caffeine","Late caffeine "],"emotionalTone":"calm","dateRange":{"start":"2026-05-01","end":"2026-05-14T00:00:00Z"},"lineageIds":["a",""]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"late caffeine"}, m.KeyPatterns)
	assert.Equal(t, []string{"a"}, m.LineageIDs)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), m.DateRange.Start)
	assert.Equal(t, time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC), m.DateRange.End)

	c, err := DecodeChronotype(`{"chronotype":"wolf"}`)
	require.NoError(t, err)
	assert.Equal(t, health.ChronotypeWolf, c)

	f, err := DecodeForecast(`[{"metric":"energy","trend":"rising","predictedValue":7.5,"daysOut":7},{"metric":"","daysOut":1}]`)
	require.NoError(t, err)
	require.Len(t, f, 1)
	assert.Equal(t, "energy", f[0].Metric)
}

func TestGeminiWithoutKey(t *testing.T) {
	t.Parallel()

	calls := 0
	p := NewGeminiProvider("  ", "", "", time.Second).WithGenerator(func(context.Context, string, string, *genai.GenerateContentConfig) (string, error) {
		calls++
		return "", nil
	})
	res := p.DeepInsight(context.Background(), InsightRequest{Logs: daysOfLogs(3, steady)})
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrNoAPIKey)
	assert.Zero(t, calls)
}

func TestGeminiDeepInsight(t *testing.T) {
	t.Parallel()

	var gotModel, gotPrompt string
	var gotCfg *genai.GenerateContentConfig
	p := NewGeminiProvider("key", "pro", "flash", time.Second).
		WithHistoryWindow(5).
		WithGenerator(func(_ context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
			gotModel, gotPrompt, gotCfg = model, prompt, cfg
			return `{"title":"Wolf hours","description":"Evening focus is strong.","type":"neutral","confidenceScore":70}`, nil
		})

	res := p.DeepInsight(context.Background(), InsightRequest{
		Logs:           daysOfLogs(20, steady),
		Chronotype:     health.ChronotypeWolf,
		ReadinessScore: 64,
	})
	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, "Wolf hours", res.Insight.Title)
	assert.Equal(t, 70, res.Insight.Confidence())

	assert.Equal(t, "pro", gotModel)
	assert.Contains(t, gotPrompt, "User Chronotype: Wolf")
	assert.Contains(t, gotPrompt, "Current Readiness Score: 64%")
	assert.Contains(t, gotPrompt, "log-19")
	assert.Contains(t, gotPrompt, "log-15")
	assert.NotContains(t, gotPrompt, "log-14")
	assert.Equal(t, "application/json", gotCfg.ResponseMIMEType)
	require.NotNil(t, gotCfg.ResponseSchema)
	assert.Contains(t, gotCfg.ResponseSchema.Required, "title")
}

func TestGeminiDeepInsightFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("503 unavailable")
	cases := map[string]struct {
		text string
		err  error
		want error
	}{
		"transport": {err: boom, want: boom},
		"malformed": {text: `{"title":"x"}`, want: ErrMalformedResponse},
		"empty":     {text: "", want: ErrEmptyResponse},
	}
	for name, tc := range cases {
		p := NewGeminiProvider("key", "", "", time.Second).WithGenerator(func(context.Context, string, string, *genai.GenerateContentConfig) (string, error) {
			return tc.text, tc.err
		})
		res := p.DeepInsight(context.Background(), InsightRequest{Logs: daysOfLogs(3, steady)})
		assert.ErrorIs(t, res.Err, tc.want, name)
	}
}

func TestGeminiTimeoutBoundsCall(t *testing.T) {
	t.Parallel()

	p := NewGeminiProvider("key", "", "", 20*time.Millisecond).WithGenerator(func(ctx context.Context, _ string, _ string, _ *genai.GenerateContentConfig) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	res := p.DeepInsight(context.Background(), InsightRequest{Logs: daysOfLogs(3, steady)})
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestGeminiHistoryPreconditions(t *testing.T) {
	t.Parallel()

	p := NewGeminiProvider("key", "", "", time.Second).WithGenerator(func(_ context.Context, model, _ string, _ *genai.GenerateContentConfig) (string, error) {
		return `{"chronotype":"Lion"}`, nil
	})
	ctx := context.Background()

	_, err := p.WeeklyBriefing(ctx, BriefingRequest{Logs: daysOfLogs(6, steady)})
	assert.ErrorIs(t, err, ErrInsufficientHistory)
	_, err = p.SynthesizeMemory(ctx, MemoryRequest{Logs: daysOfLogs(6, steady)})
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	c, err := p.DetectChronotype(ctx, ChronotypeRequest{Logs: daysOfLogs(4, steady)})
	assert.ErrorIs(t, err, ErrInsufficientHistory)
	assert.Equal(t, health.ChronotypeUnknown, c)

	c, err = p.DetectChronotype(ctx, ChronotypeRequest{Logs: daysOfLogs(5, steady)})
	require.NoError(t, err)
	assert.Equal(t, health.ChronotypeLion, c)
}

func TestOfflineDeepInsight(t *testing.T) {
	t.Parallel()

	p := NewOfflineProvider()
	ctx := context.Background()

	rising := daysOfLogs(8, func(i int) health.HealthLog {
		return health.HealthLog{SleepQuality: 4 + i/2, Energy: 6, Stress: 4, Mood: 6}
	})
	res := p.DeepInsight(ctx, InsightRequest{Logs: rising, ReadinessScore: 70})
	require.True(t, res.OK())
	assert.Equal(t, health.InsightPositive, res.Insight.Type)
	assert.Equal(t, health.ClinicalDisclaimer, res.Insight.ClinicalDisclaimer)

	stressed := daysOfLogs(8, func(i int) health.HealthLog {
		return health.HealthLog{SleepQuality: 7, Energy: 6, Stress: 2 + i, Mood: 6}
	})
	res = p.DeepInsight(ctx, InsightRequest{Logs: stressed})
	require.True(t, res.OK())
	assert.Equal(t, health.InsightWarning, res.Insight.Type)

	res = p.DeepInsight(ctx, InsightRequest{Logs: daysOfLogs(4, steady), Chronotype: health.ChronotypeBear})
	require.True(t, res.OK())
	assert.Equal(t, health.InsightNeutral, res.Insight.Type)
	assert.True(t, strings.Contains(strings.Join(res.Insight.Reasoning, " "), "Bear"))

	res = p.DeepInsight(ctx, InsightRequest{})
	assert.ErrorIs(t, res.Err, ErrInsufficientHistory)
}

func TestOfflineSyntheses(t *testing.T) {
	t.Parallel()

	p := NewOfflineProvider()
	ctx := context.Background()
	falling := daysOfLogs(8, func(i int) health.HealthLog {
		return health.HealthLog{SleepQuality: 9 - i, Energy: 6, Stress: 3, Mood: 3}
	})

	b, err := p.WeeklyBriefing(ctx, BriefingRequest{Logs: falling})
	require.NoError(t, err)
	assert.Equal(t, health.TrajectoryDescending, b.BiologicalTrajectory)
	assert.NotEmpty(t, b.CriticalCorrelations)

	m, err := p.SynthesizeMemory(ctx, MemoryRequest{Logs: falling})
	require.NoError(t, err)
	assert.Equal(t, "strained", m.EmotionalTone)
	assert.Contains(t, m.KeyPatterns, "falling sleepQuality")
	assert.Equal(t, health.IDs(falling), m.LineageIDs)
	assert.Equal(t, falling[0].Date, m.DateRange.Start)

	f, err := p.Forecast(ctx, ForecastRequest{Logs: falling, Days: 7})
	require.NoError(t, err)
	require.Len(t, f, 4)
	assert.Equal(t, "sleepQuality", f[0].Metric)
	assert.Equal(t, "falling", f[0].Trend)
	assert.GreaterOrEqual(t, f[0].PredictedValue, 0.0)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.Forecast(cancelled, ForecastRequest{Logs: falling})
	assert.ErrorIs(t, err, context.Canceled)
}
