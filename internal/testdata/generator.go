package testdata

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/jask/aura/internal/database/repository"
	"github.com/jask/aura/internal/health"
)

// Repos bundles repos used by Seed.
type Repos struct {
	Logs *repository.HealthLogRepo
}

var notes = []string{
	"",
	"late coffee",
	"long run after work",
	"deadline week",
	"slept with the window open",
	"skipped lunch",
	"quiet weekend",
}

// Generate returns days synthetic logs ending at end, oldest first. The same
// seed always yields the same scores. Sleep drifts slowly, stress follows a
// weekly cycle and energy tracks the previous night.
func Generate(subjectID string, days int, end time.Time, seed int64) []health.HealthLog {
	rng := rand.New(rand.NewSource(seed))
	out := make([]health.HealthLog, 0, days)
	sleep := 6.5
	start := end.UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		sleep = clampf(sleep+rng.NormFloat64()*0.8, 2, 9.5)
		stress := 4.0
		if wd := date.Weekday(); wd >= time.Tuesday && wd <= time.Thursday {
			stress += 2
		}
		stress += rng.NormFloat64()
		energy := sleep - 1 + rng.NormFloat64()*0.7
		mood := 10 - stress*0.6 + rng.NormFloat64()*0.8

		l := health.HealthLog{
			ID:           uuid.NewSHA1(uuid.NameSpaceOID, []byte(subjectID+"/"+date.Format("2006-01-02"))).String(),
			UserID:       subjectID,
			Date:         date.Add(7 * time.Hour),
			SleepQuality: clamp(sleep),
			Stress:       clamp(stress),
			Energy:       clamp(energy),
			Mood:         clamp(mood),
			Notes:        notes[rng.Intn(len(notes))],
		}
		if rng.Intn(3) == 0 {
			mins := int(sleep * 50)
			l.SleepPhases = &health.SleepPhases{Deep: mins / 5, REM: mins / 4, Light: mins / 2, Awake: 15 + rng.Intn(30)}
		}
		if rng.Intn(2) == 0 {
			l.Activity = &health.ActivityLog{Type: []string{"walk", "run", "cycle", "yoga"}[rng.Intn(4)], Duration: 20 + rng.Intn(60), Intensity: 3 + rng.Intn(6)}
		}
		out = append(out, l)
	}
	return out
}

// Seed stores days of synthetic logs for subjectID ending today.
func Seed(ctx context.Context, repos Repos, subjectID string, days int) (int, error) {
	logs := Generate(subjectID, days, time.Now(), time.Now().UnixNano())
	for i, l := range logs {
		if err := repos.Logs.Insert(ctx, l); err != nil {
			return i, err
		}
	}
	return len(logs), nil
}

func clamp(v float64) int {
	return int(clampf(v+0.5, 0, 10))
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
