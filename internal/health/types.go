// Package health holds the records and derived artifacts shared by the
// intelligence pipeline: subject-day logs, readiness, safety reports,
// insights and long-term memory nodes.
package health

import "time"

// ClinicalDisclaimer marks generated output as non-diagnostic.
const ClinicalDisclaimer = "Non-diagnostic information for wellbeing purposes. Not medical advice."

// StabilizationDisclaimer replaces ClinicalDisclaimer while a distress signal is active.
const StabilizationDisclaimer = "Stabilizing mode active."

// ActivityLog is the optional movement record of a HealthLog.
type ActivityLog struct {
	Type      string `json:"type" yaml:"type"`
	Duration  int    `json:"duration" yaml:"duration"`   // minutes
	Intensity int    `json:"intensity" yaml:"intensity"` // 1-10
}

// Micronutrients are daily amounts as a percentage of reference intake.
type Micronutrients struct {
	VitaminC  float64 `json:"vitaminC" yaml:"vitamin_c"`
	VitaminD  float64 `json:"vitaminD" yaml:"vitamin_d"`
	Iron      float64 `json:"iron" yaml:"iron"`
	Magnesium float64 `json:"magnesium" yaml:"magnesium"`
	Zinc      float64 `json:"zinc" yaml:"zinc"`
}

// NutritionLog is the optional intake record of a HealthLog.
type NutritionLog struct {
	Calories       float64         `json:"calories" yaml:"calories"`
	Protein        float64         `json:"protein" yaml:"protein"`
	Carbs          float64         `json:"carbs" yaml:"carbs"`
	Fats           float64         `json:"fats" yaml:"fats"`
	Description    string          `json:"description,omitempty" yaml:"description,omitempty"`
	Micronutrients *Micronutrients `json:"micronutrients,omitempty" yaml:"micronutrients,omitempty"`
}

// SleepPhases splits a night into minutes per phase.
type SleepPhases struct {
	Deep  int `json:"deep" yaml:"deep"`
	Light int `json:"light" yaml:"light"`
	REM   int `json:"rem" yaml:"rem"`
	Awake int `json:"awake" yaml:"awake"`
}

// HealthLog is one subject-day record. Ordinal scores use a 0-10 scale.
// Logs are immutable once stored; the pipeline only reads ordered slices.
type HealthLog struct {
	ID           string        `json:"id" yaml:"id,omitempty"`
	UserID       string        `json:"userId" yaml:"user_id,omitempty"`
	Date         time.Time     `json:"date" yaml:"date"`
	Mood         int           `json:"mood" yaml:"mood"`
	Energy       int           `json:"energy" yaml:"energy"`
	SleepQuality int           `json:"sleepQuality" yaml:"sleep_quality"`
	Stress       int           `json:"stress" yaml:"stress"`
	SleepPhases  *SleepPhases  `json:"sleepPhases,omitempty" yaml:"sleep_phases,omitempty"`
	Activity     *ActivityLog  `json:"activity,omitempty" yaml:"activity,omitempty"`
	Nutrition    *NutritionLog `json:"nutrition,omitempty" yaml:"nutrition,omitempty"`
	Symptoms     []string      `json:"symptoms,omitempty" yaml:"symptoms,omitempty"`
	Notes        string        `json:"notes" yaml:"notes,omitempty"`
}

// Latest returns the most recent log of an oldest-first slice.
func Latest(logs []HealthLog) (HealthLog, bool) {
	if len(logs) == 0 {
		return HealthLog{}, false
	}
	return logs[len(logs)-1], true
}

// Recent returns at most n trailing logs. The returned slice aliases logs.
func Recent(logs []HealthLog, n int) []HealthLog {
	if n <= 0 || len(logs) <= n {
		return logs
	}
	return logs[len(logs)-n:]
}

// IDs lists the ids of logs in order.
func IDs(logs []HealthLog) []string {
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.ID)
	}
	return out
}

// ReadinessState is the recommended activity load.
type ReadinessState string

const (
	StatePush     ReadinessState = "Push"
	StateMaintain ReadinessState = "Maintain"
	StateRest     ReadinessState = "Rest"
	StateRecover  ReadinessState = "Recover"
)

// ReadinessScore is the deterministic composite signal for a day.
type ReadinessScore struct {
	Score           int            `json:"score"`
	State           ReadinessState `json:"state"`
	Reason          string         `json:"reason"`
	EvidenceLineage []string       `json:"evidenceLineage,omitempty"`
}

// SafetyReport is produced once per orchestration call and never stored.
type SafetyReport struct {
	IsAnomalous            bool   `json:"isAnomalous"`
	DistressSignalDetected bool   `json:"distressSignalDetected"`
	StabilizingAdvice      string `json:"stabilizingAdvice,omitempty"`
}

// InsightType classifies an insight for presentation.
type InsightType string

const (
	InsightPositive InsightType = "positive"
	InsightWarning  InsightType = "warning"
	InsightNeutral  InsightType = "neutral"
)

// Valid reports whether t is one of the known insight types.
func (t InsightType) Valid() bool {
	switch t {
	case InsightPositive, InsightWarning, InsightNeutral:
		return true
	}
	return false
}

// Insight is the user-facing intelligence artifact.
type Insight struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"userId"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	Type               InsightType `json:"type"`
	DateGenerated      time.Time   `json:"dateGenerated"`
	ConfidenceScore    *int        `json:"confidenceScore,omitempty"`
	Reasoning          []string    `json:"reasoning,omitempty"`
	Prediction         string      `json:"prediction,omitempty"`
	ClinicalDisclaimer string      `json:"clinicalDisclaimer"`
}

// Confidence returns the confidence score, or 0 when absent.
func (i Insight) Confidence() int {
	if i.ConfidenceScore == nil {
		return 0
	}
	return *i.ConfidenceScore
}

// Confidence boxes a confidence score.
func Confidence(v int) *int { return &v }

// DateRange is an inclusive span of days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AIMemoryNode is a long-term summary of several logs. LineageIDs name the
// HealthLog records it was derived from.
type AIMemoryNode struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	DateRange     DateRange `json:"dateRange"`
	Summary       string    `json:"summary"`
	KeyPatterns   []string  `json:"keyPatterns"`
	EmotionalTone string    `json:"emotionalTone"`
	LineageIDs    []string  `json:"lineageIds"`
}

// User is a tracked subject.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	JoinedDate    time.Time  `json:"joinedDate"`
	Chronotype    Chronotype `json:"chronotype"`
	LongTermGoals []string   `json:"longTermGoals,omitempty"`
	IsCalibrated  bool       `json:"isCalibrated"`
}

// Trajectory is the direction of a weekly briefing.
type Trajectory string

const (
	TrajectoryAscending  Trajectory = "Ascending"
	TrajectoryDescending Trajectory = "Descending"
	TrajectoryPlateau    Trajectory = "Plateau"
)

// Valid reports whether t is a known trajectory.
func (t Trajectory) Valid() bool {
	switch t {
	case TrajectoryAscending, TrajectoryDescending, TrajectoryPlateau:
		return true
	}
	return false
}

// WeeklyBriefing is the narrative summary of a week of logs.
type WeeklyBriefing struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"userId"`
	WeekLabel            string     `json:"weekLabel"`
	NarrativeSummary     string     `json:"narrativeSummary"`
	BiologicalTrajectory Trajectory `json:"biologicalTrajectory"`
	CriticalCorrelations []string   `json:"criticalCorrelations"`
	SovereigntyCheck     string     `json:"sovereigntyCheck"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// Forecast predicts one metric some days out.
type Forecast struct {
	Metric         string  `json:"metric"`
	Trend          string  `json:"trend"`
	PredictedValue float64 `json:"predictedValue"`
	DaysOut        int     `json:"daysOut"`
}
