// Package readiness computes the deterministic daily readiness score from a
// subject's recent logs.
package readiness

import (
	"math"

	"github.com/jask/aura/internal/health"
)

// Window is the number of trailing logs the score is computed over.
const Window = 3

// CalibrationScore is returned until Window logs exist.
const CalibrationScore = 50

const (
	reasonCalibration = "Calibration Phase: baseline not yet established."
	reasonPush        = "Physiological recovery is peak. High intensity training or cognitive work recommended."
	reasonRecover     = "Multiple recovery signals detected. Reduce load and prioritize sleep phases."
	reasonRest        = "Stress accumulation is outpacing recovery capacity."
	reasonMaintain    = "Your systems are balanced. Continue with planned activities."
)

// Calibration is the cold-start score.
func Calibration() health.ReadinessScore {
	return health.ReadinessScore{
		Score:  CalibrationScore,
		State:  health.StateMaintain,
		Reason: reasonCalibration,
	}
}

// Estimate scores logs (oldest first) without modifying them.
//
// Sleep carries 50% of the range, inverted stress 30% and same-day energy
// 20%. States are checked in order Push, Recover, Rest, Maintain; a score of
// 85 or more therefore wins over high average stress.
func Estimate(logs []health.HealthLog) health.ReadinessScore {
	if len(logs) < Window {
		return Calibration()
	}

	recent := health.Recent(logs, Window)
	var sleep, stress float64
	for _, l := range recent {
		sleep += float64(l.SleepQuality)
		stress += float64(l.Stress)
	}
	avgSleep := sleep / Window
	avgStress := stress / Window
	todayEnergy := float64(recent[Window-1].Energy)

	score := int(math.Round(avgSleep*5 + (10-avgStress)*3 + todayEnergy*2))

	out := health.ReadinessScore{Score: score, EvidenceLineage: health.IDs(recent)}
	switch {
	case score >= 85:
		out.State, out.Reason = health.StatePush, reasonPush
	case score < 40:
		out.State, out.Reason = health.StateRecover, reasonRecover
	case avgStress > 7:
		out.State, out.Reason = health.StateRest, reasonRest
	default:
		out.State, out.Reason = health.StateMaintain, reasonMaintain
	}
	return out
}
