package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jask/aura/internal/database/repository"
	"github.com/jask/aura/internal/health"
	"github.com/jask/aura/internal/readiness"
	"github.com/jask/aura/internal/safety"
	"github.com/jask/aura/internal/service"
)

// Tools holds references needed by the tool handlers. Subject is used when a
// call names no subject.
type Tools struct {
	Intelligence *service.IntelligenceService
	Logs         *repository.HealthLogRepo
	Insights     *repository.InsightRepo
	IDs          service.IDGenerator
	Subject      string
}

// --- Input types ---

type DailyIntelligenceInput struct {
	SubjectID  string `json:"subject_id,omitempty" jsonschema:"Subject id; defaults to the active subject"`
	Chronotype string `json:"chronotype,omitempty" jsonschema:"Optional chronotype hint: Lion, Bear, Wolf or Dolphin"`
}

type AddHealthLogInput struct {
	SubjectID    string   `json:"subject_id,omitempty" jsonschema:"Subject id; defaults to the active subject"`
	Date         string   `json:"date,omitempty" jsonschema:"Day of the log as YYYY-MM-DD; defaults to today"`
	SleepQuality int      `json:"sleep_quality" jsonschema:"Sleep quality 0-10"`
	Energy       int      `json:"energy" jsonschema:"Energy 0-10"`
	Stress       int      `json:"stress" jsonschema:"Stress 0-10"`
	Mood         int      `json:"mood" jsonschema:"Mood 0-10"`
	Symptoms     []string `json:"symptoms,omitempty" jsonschema:"Free-form symptom tags"`
	Notes        string   `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

type ListInsightsInput struct {
	SubjectID string `json:"subject_id,omitempty" jsonschema:"Subject id; defaults to the active subject"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of insights; 0 returns all"`
}

type ReadinessInput struct {
	SubjectID string `json:"subject_id,omitempty" jsonschema:"Subject id; defaults to the active subject"`
}

// --- Outputs ---

type dailyOutput struct {
	Path        string                `json:"path"`
	Insight     health.Insight        `json:"insight"`
	Readiness   health.ReadinessScore `json:"readiness"`
	Safety      health.SafetyReport   `json:"safety"`
	LatencyMs   int64                 `json:"latencyMs"`
	Confidence  int                   `json:"confidence"`
	Calibrating bool                  `json:"calibrating"`
	Warning     string                `json:"warning,omitempty"`
}

type readinessOutput struct {
	Readiness health.ReadinessScore `json:"readiness"`
	Safety    health.SafetyReport   `json:"safety"`
	Triggered []string              `json:"triggered,omitempty"`
	Logs      int                   `json:"logs"`
}

// --- Handlers ---

func (t *Tools) DailyIntelligence(ctx context.Context, _ *mcp.CallToolRequest, input DailyIntelligenceInput) (*mcp.CallToolResult, any, error) {
	subject := t.subject(input.SubjectID)
	if subject == "" {
		return toolError("subject_id is required"), nil, nil
	}
	hints := service.Hints{}
	if input.Chronotype != "" {
		hints.Chronotype = health.ParseChronotype(input.Chronotype)
	}
	rep, err := t.Intelligence.Run(ctx, subject, hints)
	if err != nil && rep.Insight.Title == "" {
		return toolError("Failed to run daily intelligence: %v", err), nil, nil
	}
	out := dailyOutput{
		Path:        string(rep.Path),
		Insight:     rep.Insight,
		Readiness:   rep.Readiness,
		Safety:      rep.Safety,
		LatencyMs:   rep.LatencyMs,
		Confidence:  rep.Confidence,
		Calibrating: rep.Calibrating,
	}
	if err != nil {
		out.Warning = err.Error()
	}
	return toolJSON(out)
}

func (t *Tools) AddHealthLog(ctx context.Context, _ *mcp.CallToolRequest, input AddHealthLogInput) (*mcp.CallToolResult, any, error) {
	subject := t.subject(input.SubjectID)
	if subject == "" {
		return toolError("subject_id is required"), nil, nil
	}
	for name, v := range map[string]int{"sleep_quality": input.SleepQuality, "energy": input.Energy, "stress": input.Stress, "mood": input.Mood} {
		if v < 0 || v > 10 {
			return toolError("%s must be between 0 and 10, got %d", name, v), nil, nil
		}
	}
	date := time.Now().UTC()
	if input.Date != "" {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(input.Date))
		if err != nil {
			return toolError("date must be YYYY-MM-DD: %v", err), nil, nil
		}
		date = d
	}
	l := health.HealthLog{
		ID:           t.ids().NewID(),
		UserID:       subject,
		Date:         date,
		SleepQuality: input.SleepQuality,
		Energy:       input.Energy,
		Stress:       input.Stress,
		Mood:         input.Mood,
		Symptoms:     input.Symptoms,
		Notes:        input.Notes,
	}
	if err := t.Logs.Insert(ctx, l); err != nil {
		return toolError("Failed to store log: %v", err), nil, nil
	}
	return toolJSON(l)
}

func (t *Tools) ListInsights(ctx context.Context, _ *mcp.CallToolRequest, input ListInsightsInput) (*mcp.CallToolResult, any, error) {
	subject := t.subject(input.SubjectID)
	if subject == "" {
		return toolError("subject_id is required"), nil, nil
	}
	insights, err := t.Insights.ListBySubject(ctx, subject, input.Limit)
	if err != nil {
		return toolError("Failed to list insights: %v", err), nil, nil
	}
	if insights == nil {
		insights = []health.Insight{}
	}
	return toolJSON(insights)
}

func (t *Tools) Readiness(ctx context.Context, _ *mcp.CallToolRequest, input ReadinessInput) (*mcp.CallToolResult, any, error) {
	subject := t.subject(input.SubjectID)
	if subject == "" {
		return toolError("subject_id is required"), nil, nil
	}
	logs, err := t.Logs.ListBySubject(ctx, subject)
	if err != nil {
		return toolError("Failed to load logs: %v", err), nil, nil
	}
	return toolJSON(readinessOutput{
		Readiness: readiness.Estimate(logs),
		Safety:    safety.Validate(logs),
		Triggered: safety.Triggered(logs),
		Logs:      len(logs),
	})
}

func (t *Tools) subject(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return t.Subject
}

func (t *Tools) ids() service.IDGenerator {
	if t.IDs == nil {
		return service.UUIDGenerator{}
	}
	return t.IDs
}

// --- Helpers ---

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	r := toolText(fmt.Sprintf(format, args...))
	r.IsError = true
	return r
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return toolText(string(data)), nil, nil
}
