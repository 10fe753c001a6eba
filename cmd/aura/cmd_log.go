package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jask/aura/internal/health"
	"github.com/jask/aura/internal/render"
	"github.com/jask/aura/internal/service"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record and inspect daily check-ins",
}

var (
	logSleep, logEnergy, logStress, logMood int
	logNotes, logDate                       string
	logSymptoms                             []string
	logListLimit                            int
)

var logAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record today's check-in (scores 0-10)",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.subject(ctx)
		if err != nil {
			return err
		}
		date := time.Now().UTC()
		if logDate != "" {
			if date, err = parseDay(logDate); err != nil {
				return err
			}
		}
		l := health.HealthLog{
			ID:           service.UUIDGenerator{}.NewID(),
			UserID:       u.ID,
			Date:         date,
			SleepQuality: logSleep,
			Energy:       logEnergy,
			Stress:       logStress,
			Mood:         logMood,
			Symptoms:     logSymptoms,
			Notes:        logNotes,
		}
		if err := validateScores(l); err != nil {
			return err
		}
		if err := a.logs.Insert(ctx, l); err != nil {
			return fmt.Errorf("store log: %w", err)
		}
		fmt.Printf("Logged %s for %s.\n", l.Date.Format("2006-01-02"), u.Name)
		return nil
	}),
}

var logImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import logs from a YAML or JSON list",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		u, err := a.subject(ctx)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		logs, err := parseLogImport(data)
		if err != nil {
			return err
		}
		for i, l := range logs {
			l.ID = service.UUIDGenerator{}.NewID()
			l.UserID = u.ID
			if err := a.logs.Insert(ctx, l); err != nil {
				return fmt.Errorf("entry %d: %w", i+1, err)
			}
		}
		fmt.Printf("Imported %d logs.\n", len(logs))
		return nil
	}),
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent check-ins",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.subject(ctx)
		if err != nil {
			return err
		}
		logs, err := a.logs.Recent(ctx, u.ID, logListLimit)
		if err != nil {
			return err
		}
		fmt.Println(render.Logs(logs))
		return nil
	}),
}

func init() {
	f := logAddCmd.Flags()
	f.IntVar(&logSleep, "sleep", -1, "sleep quality 0-10")
	f.IntVar(&logEnergy, "energy", -1, "energy 0-10")
	f.IntVar(&logStress, "stress", -1, "stress 0-10")
	f.IntVar(&logMood, "mood", -1, "mood 0-10")
	f.StringVar(&logNotes, "notes", "", "free-form notes")
	f.StringVar(&logDate, "date", "", "day of the log (YYYY-MM-DD), default today")
	f.StringSliceVar(&logSymptoms, "symptom", nil, "symptom tag (repeatable)")
	for _, name := range []string{"sleep", "energy", "stress", "mood"} {
		_ = logAddCmd.MarkFlagRequired(name)
	}
	logListCmd.Flags().IntVar(&logListLimit, "limit", 14, "number of logs to show")

	logCmd.AddCommand(logAddCmd, logImportCmd, logListCmd)
}

// importEntry is one record of an import file. JSON is valid YAML, so one
// decoder serves both formats.
type importEntry struct {
	Date         string   `yaml:"date"`
	SleepQuality int      `yaml:"sleep_quality"`
	Energy       int      `yaml:"energy"`
	Stress       int      `yaml:"stress"`
	Mood         int      `yaml:"mood"`
	Symptoms     []string `yaml:"symptoms"`
	Notes        string   `yaml:"notes"`
}

func parseLogImport(data []byte) ([]health.HealthLog, error) {
	var entries []importEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse import: %w", err)
	}
	out := make([]health.HealthLog, 0, len(entries))
	for i, e := range entries {
		date, err := parseDay(e.Date)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		l := health.HealthLog{
			Date:         date,
			SleepQuality: e.SleepQuality,
			Energy:       e.Energy,
			Stress:       e.Stress,
			Mood:         e.Mood,
			Symptoms:     e.Symptoms,
			Notes:        e.Notes,
		}
		if err := validateScores(l); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		out = append(out, l)
	}
	return out, nil
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func validateScores(l health.HealthLog) error {
	for _, s := range []struct {
		name string
		v    int
	}{{"sleep", l.SleepQuality}, {"energy", l.Energy}, {"stress", l.Stress}, {"mood", l.Mood}} {
		if s.v < 0 || s.v > 10 {
			return fmt.Errorf("%s must be between 0 and 10, got %d", s.name, s.v)
		}
	}
	return nil
}
