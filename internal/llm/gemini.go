package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/jask/aura/internal/health"
)

const systemPrompt = `You are 'Aura', a health intelligence engine specialising in predictive forecasting, explainable reasoning and behavioural nudges.

Rules:
1. Output is non-diagnostic wellbeing information, never a medical diagnosis.
2. Never name medication, dosages or treatments.
3. Reference the data lineage briefly (e.g. "Based on your 14-day sleep trend...").
4. Use the subject's chronotype and current readiness score to tailor advice.`

// GenerateFunc performs one structured generation and returns the raw text.
type GenerateFunc func(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error)

// GeminiProvider talks to the Gemini API through the genai SDK. Every call is
// bounded by the provider timeout on top of the caller's context.
type GeminiProvider struct {
	apiKey    string
	model     string
	fastModel string
	timeout   time.Duration
	window    int

	mu       sync.Mutex
	client   *genai.Client
	generate GenerateFunc
}

// NewGeminiProvider returns a provider. An empty apiKey is allowed; every call
// then fails with ErrNoAPIKey.
func NewGeminiProvider(apiKey, model, fastModel string, timeout time.Duration) *GeminiProvider {
	if model == "" {
		model = "gemini-3-pro-preview"
	}
	if fastModel == "" {
		fastModel = "gemini-3-flash-preview"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GeminiProvider{
		apiKey:    strings.TrimSpace(apiKey),
		model:     model,
		fastModel: fastModel,
		timeout:   timeout,
		window:    DefaultHistoryWindow,
	}
}

// WithGenerator replaces the SDK call, mainly for tests.
func (g *GeminiProvider) WithGenerator(fn GenerateFunc) *GeminiProvider {
	g.generate = fn
	return g
}

// WithHistoryWindow sets how many trailing logs an insight request carries.
func (g *GeminiProvider) WithHistoryWindow(n int) *GeminiProvider {
	if n > 0 {
		g.window = n
	}
	return g
}

func (g *GeminiProvider) ensureClient(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("gemini: create client: %w", err)
	}
	g.client = client
	return nil
}

func (g *GeminiProvider) call(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error) {
	if g.apiKey == "" {
		return "", ErrNoAPIKey
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	}
	if g.generate != nil {
		return g.generate(ctx, model, prompt, cfg)
	}
	if err := g.ensureClient(ctx); err != nil {
		return "", err
	}
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// DeepInsight asks for the daily insight over the trailing history window.
func (g *GeminiProvider) DeepInsight(ctx context.Context, req InsightRequest) InsightResult {
	req = normalizeInsightRequest(req, g.window)
	prompt := fmt.Sprintf(`Analyze logs (%s) and memories (%s).
CONTEXT:
User Chronotype: %s
Current Readiness Score: %d%%

Provide a non-diagnostic insight tailored to how their chronotype might be influencing recent trends, or how to use their %d%% readiness today.`,
		mustJSON(compactLogs(req.Logs)), mustJSON(req.Memories), req.Chronotype, req.ReadinessScore, req.ReadinessScore)

	text, err := g.call(ctx, g.model, prompt, insightSchema)
	if err != nil {
		return Failed(err)
	}
	insight, err := DecodeInsight(text)
	if err != nil {
		return Failed(err)
	}
	return InsightResult{Insight: insight}
}

// WeeklyBriefing synthesizes the last seven days into a narrative.
func (g *GeminiProvider) WeeklyBriefing(ctx context.Context, req BriefingRequest) (health.WeeklyBriefing, error) {
	if len(req.Logs) < MinBriefingLogs {
		return health.WeeklyBriefing{}, ErrInsufficientHistory
	}
	prompt := fmt.Sprintf("Synthesize the past 7 days of logs and long-term memories into a calm weekly narrative. Logs: %s. Memories: %s.",
		mustJSON(compactLogs(health.Recent(req.Logs, 7))), mustJSON(req.Memories))
	text, err := g.call(ctx, g.model, prompt, briefingSchema)
	if err != nil {
		return health.WeeklyBriefing{}, err
	}
	return DecodeBriefing(text)
}

// SynthesizeMemory condenses logs into a long-term memory node.
func (g *GeminiProvider) SynthesizeMemory(ctx context.Context, req MemoryRequest) (health.AIMemoryNode, error) {
	if len(req.Logs) < MinMemoryLogs {
		return health.AIMemoryNode{}, ErrInsufficientHistory
	}
	prompt := fmt.Sprintf("Synthesize this data into a long-term memory node. Reference data IDs for lineage. Data: %s",
		mustJSON(compactLogs(req.Logs)))
	text, err := g.call(ctx, g.fastModel, prompt, memorySchema)
	if err != nil {
		return health.AIMemoryNode{}, err
	}
	return DecodeMemory(text)
}

// DetectChronotype classifies the subject from recent logs.
func (g *GeminiProvider) DetectChronotype(ctx context.Context, req ChronotypeRequest) (health.Chronotype, error) {
	if len(req.Logs) < MinChronotypeLogs {
		return health.ChronotypeUnknown, ErrInsufficientHistory
	}
	prompt := "Identify chronotype: " + mustJSON(health.Recent(req.Logs, 10))
	text, err := g.call(ctx, g.fastModel, prompt, chronotypeSchema)
	if err != nil {
		return health.ChronotypeUnknown, err
	}
	return DecodeChronotype(text)
}

// Forecast predicts metrics over the next req.Days days.
func (g *GeminiProvider) Forecast(ctx context.Context, req ForecastRequest) ([]health.Forecast, error) {
	days := req.Days
	if days <= 0 {
		days = 7
	}
	prompt := fmt.Sprintf("Predict %d days: %s", days, mustJSON(compactLogs(health.Recent(req.Logs, 14))))
	text, err := g.call(ctx, g.fastModel, prompt, forecastSchema)
	if err != nil {
		return nil, err
	}
	return DecodeForecast(text)
}

// compactLog is the prompt form of a log; it keeps token usage predictable.
type compactLog struct {
	ID     string `json:"id"`
	Date   string `json:"d"`
	Sleep  int    `json:"slp"`
	Stress int    `json:"str"`
	Energy int    `json:"nrg"`
	Mood   int    `json:"mood"`
	Notes  string `json:"notes,omitempty"`
}

func compactLogs(logs []health.HealthLog) []compactLog {
	out := make([]compactLog, 0, len(logs))
	for _, l := range logs {
		out = append(out, compactLog{
			ID:     l.ID,
			Date:   l.Date.Format("2006-01-02"),
			Sleep:  l.SleepQuality,
			Stress: l.Stress,
			Energy: l.Energy,
			Mood:   l.Mood,
			Notes:  l.Notes,
		})
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

var (
	stringSchema = &genai.Schema{Type: genai.TypeString}
	stringList   = &genai.Schema{Type: genai.TypeArray, Items: stringSchema}

	insightSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":           stringSchema,
			"description":     stringSchema,
			"type":            {Type: genai.TypeString, Enum: []string{"positive", "warning", "neutral"}},
			"confidenceScore": {Type: genai.TypeNumber},
			"reasoning":       stringList,
			"prediction":      stringSchema,
		},
		Required: []string{"title", "description", "type"},
	}

	briefingSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"narrativeSummary":     stringSchema,
			"biologicalTrajectory": {Type: genai.TypeString, Enum: []string{"Ascending", "Descending", "Plateau"}},
			"criticalCorrelations": stringList,
			"sovereigntyCheck":     stringSchema,
		},
		Required: []string{"narrativeSummary", "biologicalTrajectory"},
	}

	memorySchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":       stringSchema,
			"keyPatterns":   stringList,
			"emotionalTone": stringSchema,
			"dateRange": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start": stringSchema,
					"end":   stringSchema,
				},
			},
			"lineageIds": stringList,
		},
		Required: []string{"summary"},
	}

	chronotypeSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"chronotype": {Type: genai.TypeString, Enum: []string{"Lion", "Bear", "Wolf", "Dolphin", "Unknown"}},
		},
	}

	forecastSchema = &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"metric":         stringSchema,
				"trend":          stringSchema,
				"predictedValue": {Type: genai.TypeNumber},
				"daysOut":        {Type: genai.TypeInteger},
			},
		},
	}
)
