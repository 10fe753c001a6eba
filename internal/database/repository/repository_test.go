package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/aura/internal/database"
	"github.com/jask/aura/internal/database/repository"
	"github.com/jask/aura/internal/health"
)

func openTestDB(t *testing.T) (*sql.DB, health.User) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	u, err := database.EnsureSubject(context.Background(), db, "Test", "test@example.com")
	require.NoError(t, err)
	return db, u
}

func day(n int) time.Time {
	return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestHealthLogRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, u := openTestDB(t)
	repo := repository.NewHealthLogRepo(db)

	full := health.HealthLog{
		ID: "log-full", UserID: u.ID, Date: day(1),
		Mood: 6, Energy: 7, SleepQuality: 8, Stress: 3,
		SleepPhases: &health.SleepPhases{Deep: 90, REM: 120, Light: 240, Awake: 30},
		Activity:    &health.ActivityLog{Type: "run", Duration: 45, Intensity: 6},
		Symptoms:    []string{"headache"},
		Notes:       "long day",
	}
	bare := health.HealthLog{ID: "log-bare", UserID: u.ID, Date: day(0), Mood: 5, Energy: 5, SleepQuality: 5, Stress: 5}
	require.NoError(t, repo.Insert(ctx, full))
	require.NoError(t, repo.Insert(ctx, bare))

	logs, err := repo.ListBySubject(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "log-bare", logs[0].ID, "oldest first")
	assert.Nil(t, logs[0].SleepPhases)
	assert.Nil(t, logs[0].Nutrition)
	assert.Empty(t, logs[0].Symptoms)

	got := logs[1]
	require.NotNil(t, got.SleepPhases)
	assert.Equal(t, 90, got.SleepPhases.Deep)
	require.NotNil(t, got.Activity)
	assert.Equal(t, "run", got.Activity.Type)
	assert.Equal(t, []string{"headache"}, got.Symptoms)
	assert.Equal(t, "long day", got.Notes)
	assert.True(t, got.Date.Equal(day(1)))

	n, err := repo.Count(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHealthLogRecentKeepsChronologicalOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, u := openTestDB(t)
	repo := repository.NewHealthLogRepo(db)
	for i := 4; i >= 0; i-- {
		require.NoError(t, repo.Insert(ctx, health.HealthLog{
			ID: "log-" + string(rune('a'+i)), UserID: u.ID, Date: day(i),
			Mood: 5, Energy: 5, SleepQuality: i, Stress: 5,
		}))
	}
	recent, err := repo.Recent(ctx, u.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"log-c", "log-d", "log-e"}, health.IDs(recent))
}

func TestHealthLogRejectsOutOfRangeScores(t *testing.T) {
	t.Parallel()
	db, u := openTestDB(t)
	err := repository.NewHealthLogRepo(db).Insert(context.Background(), health.HealthLog{
		ID: "bad", UserID: u.ID, Date: day(0), Mood: 11,
	})
	require.Error(t, err)
}

func TestUserRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, u := openTestDB(t)
	users := repository.NewUserRepo(db)

	missing, err := users.ByID(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, users.UpdateChronotype(ctx, u.ID, health.ChronotypeWolf))
	require.NoError(t, users.SetCalibrated(ctx, u.ID, true))

	got, err := users.ByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, health.ChronotypeWolf, got.Chronotype)
	assert.True(t, got.IsCalibrated)

	got.LongTermGoals = []string{"sleep by 23:00"}
	require.NoError(t, users.Upsert(ctx, *got))
	again, err := users.ByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, []string{"sleep by 23:00"}, again.LongTermGoals)
}

func TestMemoryRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, u := openTestDB(t)
	repo := repository.NewMemoryRepo(db)

	node := health.AIMemoryNode{
		ID: "mem-1", UserID: u.ID,
		DateRange:     health.DateRange{Start: day(0), End: day(6)},
		Summary:       "steady week",
		KeyPatterns:   []string{"late caffeine"},
		EmotionalTone: "calm",
		LineageIDs:    []string{"log-a", "log-b"},
	}
	require.NoError(t, repo.Insert(ctx, node))

	nodes, err := repo.ListBySubject(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, node.LineageIDs, nodes[0].LineageIDs)
	assert.Equal(t, node.KeyPatterns, nodes[0].KeyPatterns)
	assert.True(t, nodes[0].DateRange.End.Equal(day(6)))
}

func TestInsightRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, u := openTestDB(t)
	repo := repository.NewInsightRepo(db)

	older := health.Insight{ID: "i-1", UserID: u.ID, Title: "a", Description: "d", Type: health.InsightNeutral, DateGenerated: day(0)}
	newer := health.Insight{
		ID: "i-2", UserID: u.ID, Title: "b", Description: "d", Type: health.InsightPositive, DateGenerated: day(1),
		ConfidenceScore: health.Confidence(80), Reasoning: []string{"r1", "r2"}, ClinicalDisclaimer: health.ClinicalDisclaimer,
	}
	require.NoError(t, repo.Insert(ctx, older))
	require.NoError(t, repo.Insert(ctx, newer))

	all, err := repo.ListBySubject(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "i-2", all[0].ID)
	assert.Equal(t, 80, all[0].Confidence())
	assert.Equal(t, []string{"r1", "r2"}, all[0].Reasoning)
	assert.Nil(t, all[1].ConfidenceScore)

	one, err := repo.ListBySubject(ctx, u.ID, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
}

func TestBriefingRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, u := openTestDB(t)
	repo := repository.NewBriefingRepo(db)

	b := health.WeeklyBriefing{
		ID: "b-1", UserID: u.ID, WeekLabel: "2026-W10",
		NarrativeSummary:     "calm",
		BiologicalTrajectory: health.TrajectoryAscending,
		CriticalCorrelations: []string{"sleep vs stress"},
		CreatedAt:            day(7),
	}
	require.NoError(t, repo.Insert(ctx, b))
	got, err := repo.ListBySubject(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, health.TrajectoryAscending, got[0].BiologicalTrajectory)
	assert.Equal(t, []string{"sleep vs stress"}, got[0].CriticalCorrelations)
}
