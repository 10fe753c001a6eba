// Package safety screens the latest log for distress and anomaly conditions
// and redacts clinically risky phrasing from generated text.
package safety

import "github.com/jask/aura/internal/health"

// StabilizingAdvice is returned with every distress report.
const StabilizingAdvice = "Neural Core has shifted to recovery-only logic. Biometric markers indicate high systemic risk. Minimize cognitive load and digital inputs for 12 hours."

// Condition is a named predicate over a single log.
type Condition struct {
	Name  string
	Match func(health.HealthLog) bool
}

// CriticalStress is the distress gate: stress at 9 or more with mood at 3 or less.
var CriticalStress = Condition{
	Name: "critical stress with low mood",
	Match: func(l health.HealthLog) bool {
		return l.Stress >= 9 && l.Mood <= 3
	},
}

// Anomalies are implausible combinations. They are advisory only.
var Anomalies = []Condition{
	{
		Name: "sleep-deprived but high energy",
		Match: func(l health.HealthLog) bool {
			return l.SleepQuality < 3 && l.Energy > 8
		},
	},
	{
		Name: "extreme stress with elevated mood",
		Match: func(l health.HealthLog) bool {
			return l.Stress > 9 && l.Mood > 8
		},
	},
}

// Validate inspects the most recent log of an oldest-first slice.
func Validate(logs []health.HealthLog) health.SafetyReport {
	latest, ok := health.Latest(logs)
	if !ok {
		return health.SafetyReport{}
	}

	if CriticalStress.Match(latest) {
		return health.SafetyReport{
			IsAnomalous:            true,
			DistressSignalDetected: true,
			StabilizingAdvice:      StabilizingAdvice,
		}
	}

	for _, c := range Anomalies {
		if c.Match(latest) {
			return health.SafetyReport{IsAnomalous: true}
		}
	}
	return health.SafetyReport{}
}

// Triggered lists the names of every condition matching the most recent log.
func Triggered(logs []health.HealthLog) []string {
	latest, ok := health.Latest(logs)
	if !ok {
		return nil
	}
	var out []string
	if CriticalStress.Match(latest) {
		out = append(out, CriticalStress.Name)
	}
	for _, c := range Anomalies {
		if c.Match(latest) {
			out = append(out, c.Name)
		}
	}
	return out
}
