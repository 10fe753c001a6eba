package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jask/aura/internal/health"
)

// OfflineProvider is a deterministic, network-free provider. It derives its
// narratives from simple trend arithmetic so the rest of the app behaves the
// same without API access.
type OfflineProvider struct{}

// NewOfflineProvider returns an OfflineProvider.
func NewOfflineProvider() *OfflineProvider { return &OfflineProvider{} }

// trend compares the mean of the newer half of values with the older half.
func trend(logs []health.HealthLog, metric func(health.HealthLog) int) float64 {
	if len(logs) < 2 {
		return 0
	}
	mid := len(logs) / 2
	return mean(logs[mid:], metric) - mean(logs[:mid], metric)
}

func mean(logs []health.HealthLog, metric func(health.HealthLog) int) float64 {
	if len(logs) == 0 {
		return 0
	}
	sum := 0
	for _, l := range logs {
		sum += metric(l)
	}
	return float64(sum) / float64(len(logs))
}

var metrics = []struct {
	name string
	get  func(health.HealthLog) int
}{
	{"sleepQuality", func(l health.HealthLog) int { return l.SleepQuality }},
	{"energy", func(l health.HealthLog) int { return l.Energy }},
	{"stress", func(l health.HealthLog) int { return l.Stress }},
	{"mood", func(l health.HealthLog) int { return l.Mood }},
}

// DeepInsight reports the strongest sleep or stress trend in the window.
func (p *OfflineProvider) DeepInsight(ctx context.Context, req InsightRequest) InsightResult {
	if err := ctx.Err(); err != nil {
		return Failed(err)
	}
	req = normalizeInsightRequest(req, DefaultHistoryWindow)
	if len(req.Logs) == 0 {
		return Failed(ErrInsufficientHistory)
	}

	sleep := trend(req.Logs, metrics[0].get)
	stress := trend(req.Logs, metrics[2].get)
	reasoning := []string{
		fmt.Sprintf("Sleep quality moved %+.1f points across the last %d logs.", sleep, len(req.Logs)),
		fmt.Sprintf("Stress moved %+.1f points across the same window.", stress),
		fmt.Sprintf("Readiness today is %d%%.", req.ReadinessScore),
	}
	conf := min(95, 40+5*len(req.Logs))

	out := health.Insight{
		Type:               health.InsightNeutral,
		Title:              "Holding Steady",
		Description:        "Your recent signals are stable. Keep your current routine consistent.",
		ConfidenceScore:    health.Confidence(conf),
		Reasoning:          reasoning,
		ClinicalDisclaimer: health.ClinicalDisclaimer,
	}
	switch {
	case stress >= 1.5:
		out.Type = health.InsightWarning
		out.Title = "Stress Is Climbing"
		out.Description = "Stress has risen faster than your sleep can absorb. Protect tonight's wind-down window."
		out.Prediction = "Readiness is likely to dip over the next few days unless stress load eases."
	case sleep >= 1:
		out.Type = health.InsightPositive
		out.Title = "Sleep Momentum"
		out.Description = "Your sleep quality is trending up. This is a good window for demanding work."
		out.Prediction = "Readiness should hold or improve while the sleep trend continues."
	case sleep <= -1:
		out.Type = health.InsightWarning
		out.Title = "Sleep Is Slipping"
		out.Description = "Sleep quality has dropped across your recent logs. Favour an earlier, regular bedtime."
		out.Prediction = "Energy is likely to lag behind until sleep recovers."
	}
	if req.Chronotype != health.ChronotypeUnknown {
		out.Reasoning = append(out.Reasoning, fmt.Sprintf("Advice framed for a %s chronotype.", req.Chronotype))
	}
	return InsightResult{Insight: out}
}

// WeeklyBriefing labels the week by its readiness-relevant trend.
func (p *OfflineProvider) WeeklyBriefing(ctx context.Context, req BriefingRequest) (health.WeeklyBriefing, error) {
	if err := ctx.Err(); err != nil {
		return health.WeeklyBriefing{}, err
	}
	if len(req.Logs) < MinBriefingLogs {
		return health.WeeklyBriefing{}, ErrInsufficientHistory
	}
	week := health.Recent(req.Logs, 7)
	delta := trend(week, metrics[0].get) - trend(week, metrics[2].get)

	traj := health.TrajectoryPlateau
	switch {
	case delta >= 1:
		traj = health.TrajectoryAscending
	case delta <= -1:
		traj = health.TrajectoryDescending
	}

	var corr []string
	for _, m := range metrics {
		if d := trend(week, m.get); math.Abs(d) >= 1 {
			corr = append(corr, fmt.Sprintf("%s shifted %+.1f over the week", m.name, d))
		}
	}
	return health.WeeklyBriefing{
		NarrativeSummary: fmt.Sprintf("Across %d check-ins your average sleep quality was %.1f and stress %.1f. The week reads as %s.",
			len(week), mean(week, metrics[0].get), mean(week, metrics[2].get), strings.ToLower(string(traj))),
		BiologicalTrajectory: traj,
		CriticalCorrelations: corr,
		SovereigntyCheck:     "Generated locally from your own logs; nothing left this device.",
	}, nil
}

// SynthesizeMemory summarises logs with their averages and trends.
func (p *OfflineProvider) SynthesizeMemory(ctx context.Context, req MemoryRequest) (health.AIMemoryNode, error) {
	if err := ctx.Err(); err != nil {
		return health.AIMemoryNode{}, err
	}
	if len(req.Logs) < MinMemoryLogs {
		return health.AIMemoryNode{}, ErrInsufficientHistory
	}
	var patterns []string
	for _, m := range metrics {
		switch d := trend(req.Logs, m.get); {
		case d >= 1:
			patterns = append(patterns, "rising "+m.name)
		case d <= -1:
			patterns = append(patterns, "falling "+m.name)
		}
	}
	tone := "steady"
	switch avg := mean(req.Logs, metrics[3].get); {
	case avg >= 7:
		tone = "upbeat"
	case avg <= 4:
		tone = "strained"
	}
	first, last := req.Logs[0], req.Logs[len(req.Logs)-1]
	return health.AIMemoryNode{
		DateRange: health.DateRange{Start: first.Date, End: last.Date},
		Summary: fmt.Sprintf("%d days with mean sleep %.1f, energy %.1f, stress %.1f, mood %.1f.",
			len(req.Logs), mean(req.Logs, metrics[0].get), mean(req.Logs, metrics[1].get),
			mean(req.Logs, metrics[2].get), mean(req.Logs, metrics[3].get)),
		KeyPatterns:   patterns,
		EmotionalTone: tone,
		LineageIDs:    health.IDs(req.Logs),
	}, nil
}

// DetectChronotype needs sleep timing, which logs do not carry.
func (p *OfflineProvider) DetectChronotype(ctx context.Context, req ChronotypeRequest) (health.Chronotype, error) {
	if len(req.Logs) < MinChronotypeLogs {
		return health.ChronotypeUnknown, ErrInsufficientHistory
	}
	return health.ChronotypeUnknown, ctx.Err()
}

// Forecast extends each metric's trend linearly, clamped to the 0-10 scale.
func (p *OfflineProvider) Forecast(ctx context.Context, req ForecastRequest) ([]health.Forecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logs := health.Recent(req.Logs, 14)
	if len(logs) < 2 {
		return nil, ErrInsufficientHistory
	}
	days := req.Days
	if days <= 0 {
		days = 7
	}
	last := logs[len(logs)-1]
	out := make([]health.Forecast, 0, len(metrics))
	for _, m := range metrics {
		// half-window delta spread over half-window days
		slope := trend(logs, m.get) / math.Max(1, float64(len(logs)/2))
		v := math.Max(0, math.Min(10, float64(m.get(last))+slope*float64(days)))
		dir := "stable"
		switch {
		case slope > 0.05:
			dir = "rising"
		case slope < -0.05:
			dir = "falling"
		}
		out = append(out, health.Forecast{
			Metric:         m.name,
			Trend:          dir,
			PredictedValue: math.Round(v*10) / 10,
			DaysOut:        days,
		})
	}
	return out, nil
}
