// Package render formats pipeline results for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/aura/internal/health"
)

// Readiness renders the score line with a ten-cell gauge.
func Readiness(r health.ReadinessScore) string {
	filled := r.Score / 10
	filled = max(0, min(10, filled))
	gauge := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
	state := lipgloss.NewStyle().Bold(true).Foreground(stateColor(string(r.State))).Render(string(r.State))
	return fmt.Sprintf("%s %s %3d%%  %s\n%s",
		labelStyle.Render("Readiness"), gauge, r.Score, state, mutedStyle.Render(r.Reason))
}

// Insight renders an insight card.
func Insight(i health.Insight) string {
	var b strings.Builder
	kind := lipgloss.NewStyle().Foreground(insightColor(string(i.Type))).Render(strings.ToUpper(string(i.Type)))
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(i.Title), kind)
	b.WriteString(textStyle.Render(i.Description))
	if len(i.Reasoning) > 0 {
		b.WriteString("\n\n" + headerStyle.Render("Why"))
		for _, r := range i.Reasoning {
			b.WriteString("\n• " + r)
		}
	}
	if i.Prediction != "" {
		b.WriteString("\n\n" + headerStyle.Render("Outlook") + "\n" + i.Prediction)
	}
	if i.ConfidenceScore != nil {
		b.WriteString("\n\n" + labelStyle.Render(fmt.Sprintf("Confidence %d%%", *i.ConfidenceScore)))
	}
	if i.ClinicalDisclaimer != "" {
		b.WriteString("\n" + mutedStyle.Render(i.ClinicalDisclaimer))
	}
	return cardStyle.Render(b.String())
}

// Safety renders the advisory line, or "" when nothing was flagged.
func Safety(s health.SafetyReport, triggered []string) string {
	switch {
	case s.DistressSignalDetected:
		return lipgloss.NewStyle().Bold(true).Foreground(colorRed).Render("Distress signal detected: " + strings.Join(triggered, ", "))
	case s.IsAnomalous:
		return lipgloss.NewStyle().Foreground(colorYellow).Render("Unusual combination logged: " + strings.Join(triggered, ", "))
	}
	return ""
}

// Briefing renders a weekly briefing card.
func Briefing(w health.WeeklyBriefing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render("Weekly Briefing "+w.WeekLabel), headerStyle.Render(string(w.BiologicalTrajectory)))
	b.WriteString(textStyle.Render(w.NarrativeSummary))
	if len(w.CriticalCorrelations) > 0 {
		b.WriteString("\n\n" + headerStyle.Render("Correlations"))
		for _, c := range w.CriticalCorrelations {
			b.WriteString("\n• " + c)
		}
	}
	if w.SovereigntyCheck != "" {
		b.WriteString("\n\n" + mutedStyle.Render(w.SovereigntyCheck))
	}
	return cardStyle.Render(b.String())
}

// Forecasts renders one row per metric.
func Forecasts(fs []health.Forecast) string {
	if len(fs) == 0 {
		return mutedStyle.Render("No forecast available.")
	}
	rows := []string{headerStyle.Render(fmt.Sprintf("%-14s %-8s %6s %5s", "metric", "trend", "value", "days"))}
	for _, f := range fs {
		rows = append(rows, fmt.Sprintf("%-14s %-8s %6.1f %5d", f.Metric, f.Trend, f.PredictedValue, f.DaysOut))
	}
	return strings.Join(rows, "\n")
}

// Logs renders logs newest last, one line each.
func Logs(logs []health.HealthLog) string {
	if len(logs) == 0 {
		return mutedStyle.Render("No logs yet.")
	}
	rows := []string{headerStyle.Render(fmt.Sprintf("%-10s %5s %6s %6s %4s  %s", "date", "sleep", "energy", "stress", "mood", "notes"))}
	for _, l := range logs {
		rows = append(rows, fmt.Sprintf("%-10s %5d %6d %6d %4d  %s",
			l.Date.Format("2006-01-02"), l.SleepQuality, l.Energy, l.Stress, l.Mood, l.Notes))
	}
	return strings.Join(rows, "\n")
}

// Memory renders a memory node summary.
func Memory(m health.AIMemoryNode) string {
	head := titleStyle.Render(fmt.Sprintf("Memory %s to %s", m.DateRange.Start.Format("2006-01-02"), m.DateRange.End.Format("2006-01-02")))
	body := textStyle.Render(m.Summary)
	if len(m.KeyPatterns) > 0 {
		body += "\n" + labelStyle.Render("Patterns: "+strings.Join(m.KeyPatterns, ", "))
	}
	body += "\n" + mutedStyle.Render(fmt.Sprintf("Tone: %s · %d source logs", m.EmotionalTone, len(m.LineageIDs)))
	return cardStyle.Render(head + "\n" + body)
}
