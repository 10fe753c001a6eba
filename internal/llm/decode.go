package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jask/aura/internal/health"
)

// insightWire is the collaborator's insight payload before validation.
type insightWire struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Type            string   `json:"type"`
	ConfidenceScore *float64 `json:"confidenceScore"`
	Reasoning       []string `json:"reasoning"`
	Prediction      string   `json:"prediction"`
}

type briefingWire struct {
	NarrativeSummary     string   `json:"narrativeSummary"`
	BiologicalTrajectory string   `json:"biologicalTrajectory"`
	CriticalCorrelations []string `json:"criticalCorrelations"`
	SovereigntyCheck     string   `json:"sovereigntyCheck"`
}

type memoryWire struct {
	Summary       string   `json:"summary"`
	KeyPatterns   []string `json:"keyPatterns"`
	EmotionalTone string   `json:"emotionalTone"`
	DateRange     struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"dateRange"`
	LineageIDs []string `json:"lineageIds"`
}

type chronotypeWire struct {
	Chronotype string `json:"chronotype"`
}

// DecodeInsight parses and validates an insight payload. The returned insight
// carries the clinical disclaimer; ids and timestamps are left zero.
func DecodeInsight(text string) (health.Insight, error) {
	var w insightWire
	if err := decodeJSON(text, &w); err != nil {
		return health.Insight{}, err
	}

	w.Title = strings.TrimSpace(w.Title)
	w.Description = strings.TrimSpace(w.Description)
	switch {
	case w.Title == "":
		return health.Insight{}, fmt.Errorf("%w: missing title", ErrMalformedResponse)
	case w.Description == "":
		return health.Insight{}, fmt.Errorf("%w: missing description", ErrMalformedResponse)
	}

	typ := health.InsightType(strings.ToLower(strings.TrimSpace(w.Type)))
	if !typ.Valid() {
		return health.Insight{}, fmt.Errorf("%w: unknown insight type %q", ErrMalformedResponse, w.Type)
	}

	out := health.Insight{
		Title:              w.Title,
		Description:        w.Description,
		Type:               typ,
		Reasoning:          nonEmpty(w.Reasoning),
		Prediction:         strings.TrimSpace(w.Prediction),
		ClinicalDisclaimer: health.ClinicalDisclaimer,
	}
	if w.ConfidenceScore != nil {
		c := *w.ConfidenceScore
		if math.IsNaN(c) || c < 0 || c > 100 {
			return health.Insight{}, fmt.Errorf("%w: confidence %v out of range", ErrMalformedResponse, c)
		}
		out.ConfidenceScore = health.Confidence(int(math.Round(c)))
	}
	return out, nil
}

// DecodeBriefing parses and validates a weekly briefing payload.
func DecodeBriefing(text string) (health.WeeklyBriefing, error) {
	var w briefingWire
	if err := decodeJSON(text, &w); err != nil {
		return health.WeeklyBriefing{}, err
	}
	if strings.TrimSpace(w.NarrativeSummary) == "" {
		return health.WeeklyBriefing{}, fmt.Errorf("%w: missing narrative summary", ErrMalformedResponse)
	}
	traj := health.Trajectory(strings.TrimSpace(w.BiologicalTrajectory))
	if !traj.Valid() {
		return health.WeeklyBriefing{}, fmt.Errorf("%w: unknown trajectory %q", ErrMalformedResponse, w.BiologicalTrajectory)
	}
	return health.WeeklyBriefing{
		NarrativeSummary:     strings.TrimSpace(w.NarrativeSummary),
		BiologicalTrajectory: traj,
		CriticalCorrelations: nonEmpty(w.CriticalCorrelations),
		SovereigntyCheck:     strings.TrimSpace(w.SovereigntyCheck),
	}, nil
}

// DecodeMemory parses a memory node payload. Dates accept RFC 3339 or
// YYYY-MM-DD; missing or unparsable dates are left zero for the caller to fill.
func DecodeMemory(text string) (health.AIMemoryNode, error) {
	var w memoryWire
	if err := decodeJSON(text, &w); err != nil {
		return health.AIMemoryNode{}, err
	}
	if strings.TrimSpace(w.Summary) == "" {
		return health.AIMemoryNode{}, fmt.Errorf("%w: missing summary", ErrMalformedResponse)
	}
	return health.AIMemoryNode{
		Summary:       strings.TrimSpace(w.Summary),
		KeyPatterns:   health.DedupePatterns(w.KeyPatterns),
		EmotionalTone: strings.TrimSpace(w.EmotionalTone),
		DateRange: health.DateRange{
			Start: parseDate(w.DateRange.Start),
			End:   parseDate(w.DateRange.End),
		},
		LineageIDs: nonEmpty(w.LineageIDs),
	}, nil
}

// DecodeChronotype parses a chronotype payload.
func DecodeChronotype(text string) (health.Chronotype, error) {
	var w chronotypeWire
	if err := decodeJSON(text, &w); err != nil {
		return health.ChronotypeUnknown, err
	}
	return health.ParseChronotype(w.Chronotype), nil
}

// DecodeForecast parses a forecast list, dropping entries without a metric.
func DecodeForecast(text string) ([]health.Forecast, error) {
	var w []health.Forecast
	if err := decodeJSON(text, &w); err != nil {
		return nil, err
	}
	out := w[:0]
	for _, f := range w {
		f.Metric = strings.TrimSpace(f.Metric)
		if f.Metric == "" || f.DaysOut < 0 {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// decodeJSON tolerates markdown fences and leading prose around the payload
// but rejects fields outside the response schema.
func decodeJSON(text string, out any) error {
	s := strings.TrimSpace(text)
	if s == "" {
		return ErrEmptyResponse
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "{["); i > 0 {
		s = s[i:]
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
